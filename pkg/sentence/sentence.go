// Package sentence groups classified tokens into sentences and mines the
// high-learning-value ones: sentences whose unknown-word count makes them
// useful acquisition material, ideally i+1 (exactly one unknown word).
package sentence

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode/utf8"

	"github.com/soramame/yomu/pkg/matcher"
)

// DefaultMinContextLen is the minimum rune length a sentence must retain
// after subtracting its unknown words. Shorter sentences provide too little
// context to be worth recording.
const DefaultMinContextLen = 10

// Group is one sentence of a text unit with its tokens and the distinct
// unknown base forms, in first-appearance order.
type Group struct {
	Text         string
	Tokens       []matcher.ClassifiedToken
	UnknownWords []string
}

// UnknownCount returns the number of distinct unknown base forms. It always
// equals len(UnknownWords).
func (g *Group) UnknownCount() int { return len(g.UnknownWords) }

// IsIPlusOne reports whether the sentence contains exactly one unknown word.
func (g *Group) IsIPlusOne() bool { return len(g.UnknownWords) == 1 }

// Recordable reports whether the sentence is worth persisting: between one
// and three unknown words, and enough known context around them. minContext
// <= 0 selects DefaultMinContextLen.
func (g *Group) Recordable(minContext int) bool {
	if minContext <= 0 {
		minContext = DefaultMinContextLen
	}
	uc := len(g.UnknownWords)
	if uc < 1 || uc > 3 {
		return false
	}
	unknownLen := 0
	for _, w := range g.UnknownWords {
		unknownLen += utf8.RuneCountInString(w)
	}
	return utf8.RuneCountInString(strings.TrimSpace(g.Text))-unknownLen >= minContext
}

func isBoundary(r rune) bool {
	return r == '。' || r == '！' || r == '？' || r == '\n'
}

// EndsWithFinalPunct reports whether s ends in sentence-final punctuation.
func EndsWithFinalPunct(s string) bool {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeLastRuneInString(s)
	return size > 0 && (r == '。' || r == '！' || r == '？')
}

// GroupTokens partitions tokens into sentences. Boundaries are sentence-final
// punctuation (。！？) and newlines; the left edge is the start of the unit
// or the previous boundary. Duplicate sentence texts within one unit collapse
// into the first occurrence. Tokens are assigned by their start offset.
func GroupTokens(text string, tokens []matcher.ClassifiedToken) []Group {
	runes := []rune(text)
	var groups []Group
	seen := make(map[string]struct{})

	ti := 0
	start := 0
	for start < len(runes) {
		end := start
		for end < len(runes) && !isBoundary(runes[end]) {
			end++
		}
		if end < len(runes) {
			end++ // boundary belongs to the sentence
		}

		sentText := string(runes[start:end])
		var sentTokens []matcher.ClassifiedToken
		for ti < len(tokens) && tokens[ti].Start < end {
			if tokens[ti].Start >= start {
				sentTokens = append(sentTokens, tokens[ti])
			}
			ti++
		}

		trimmed := strings.TrimSpace(sentText)
		if trimmed != "" && len(sentTokens) > 0 {
			if _, dup := seen[trimmed]; !dup {
				seen[trimmed] = struct{}{}
				groups = append(groups, Group{
					Text:         trimmed,
					Tokens:       sentTokens,
					UnknownWords: distinctUnknown(sentTokens),
				})
			}
		}
		start = end
	}
	return groups
}

func distinctUnknown(tokens []matcher.ClassifiedToken) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, t := range tokens {
		if t.Status != matcher.StatusUnknown {
			continue
		}
		if _, dup := seen[t.BaseForm]; dup {
			continue
		}
		seen[t.BaseForm] = struct{}{}
		out = append(out, t.BaseForm)
	}
	return out
}

// Hash returns the content key for a sentence text: FNV-1a 64 in hex.
func Hash(text string) string {
	h := fnv.New64a()
	h.Write([]byte(strings.TrimSpace(text)))
	return fmt.Sprintf("%016x", h.Sum64())
}
