package dict

// Unicode ranges for the Japanese scripts the engine analyzes. Latin text,
// digits and punctuation are outside the target script and are skipped by the
// matcher and excluded from statistics.

// IsScriptRune reports whether r belongs to a Japanese script
// (hiragana, katakana, kanji, or the marks that extend them).
func IsScriptRune(r rune) bool {
	switch {
	case r >= 0x3041 && r <= 0x3096: // hiragana
		return true
	case r >= 0x30A1 && r <= 0x30FA: // katakana
		return true
	case r == 0x30FC: // prolonged sound mark ー
		return true
	case r >= 0x31F0 && r <= 0x31FF: // katakana phonetic extensions
		return true
	case r >= 0x4E00 && r <= 0x9FFF: // CJK unified ideographs
		return true
	case r >= 0x3400 && r <= 0x4DBF: // CJK extension A
		return true
	case r == 0x3005 || r == 0x3006: // 々 〆
		return true
	case r >= 0xFF66 && r <= 0xFF9D: // halfwidth katakana
		return true
	}
	return false
}

// IsScriptWord reports whether s contains at least one Japanese script rune.
// Tokens failing this test are outside the target script.
func IsScriptWord(s string) bool {
	for _, r := range s {
		if IsScriptRune(r) {
			return true
		}
	}
	return false
}

// IsKana reports whether r is hiragana or katakana.
func IsKana(r rune) bool {
	return (r >= 0x3041 && r <= 0x3096) || (r >= 0x30A1 && r <= 0x30FA) || r == 0x30FC
}

// ToHiragana converts katakana runes to their hiragana equivalents.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}
