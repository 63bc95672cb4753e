package dict

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
)

// JMdictEntry matches the structure of jmdict-simplified entries.
type JMdictEntry struct {
	Id    string          `json:"id"`
	Kanji []JMdictElement `json:"kanji"`
	Kana  []JMdictElement `json:"kana"`
	Sense []JMdictSense   `json:"sense"`
}

type JMdictElement struct {
	Text   string   `json:"text"`
	Common bool     `json:"common"`
	Tags   []string `json:"tags"`
}

type JMdictSense struct {
	PartOfSpeech []string `json:"partOfSpeech"`
}

// LoadJMdictSimplified reads a jmdict-simplified JSON file, accepting either
// the { "words": [...] } wrapper or a bare array.
func LoadJMdictSimplified(path string) ([]JMdictEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var wrapper struct {
		Words []JMdictEntry `json:"words"`
	}
	dec := json.NewDecoder(f)
	if err := dec.Decode(&wrapper); err == nil && len(wrapper.Words) > 0 {
		return wrapper.Words, nil
	}

	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}
	var entries []JMdictEntry
	dec = json.NewDecoder(f)
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary as object or array: %w", err)
	}
	return entries, nil
}

// BuildLexicon converts JMdict entries into a matcher lexicon. Every kanji and
// kana writing becomes a base form carrying the entry's inflectional class.
// Ranks come from the supplied frequency map when present; otherwise common
// entries are ranked by their position among common entries, a rough but
// serviceable frequency proxy. Entries with no writings are logged and
// skipped.
func BuildLexicon(entries []JMdictEntry, ranks map[string]int, logger *log.Logger) *Lexicon {
	lex := NewLexicon()
	commonRank := 0
	for _, e := range entries {
		class := ClassNone
		for _, s := range e.Sense {
			for _, pos := range s.PartOfSpeech {
				class |= ParseClass(pos)
			}
		}
		common := false
		for _, el := range append(append([]JMdictElement(nil), e.Kanji...), e.Kana...) {
			if el.Common {
				common = true
				break
			}
		}
		if common {
			commonRank++
		}

		added := 0
		for _, el := range append(append([]JMdictElement(nil), e.Kanji...), e.Kana...) {
			if el.Text == "" {
				continue
			}
			rank := ranks[el.Text]
			if rank == 0 && common {
				rank = commonRank
			}
			if err := lex.Add(el.Text, class, rank); err != nil {
				if logger != nil {
					logger.Printf("jmdict entry %s: skipping writing: %v", e.Id, err)
				}
				continue
			}
			added++
		}
		if added == 0 && logger != nil {
			logger.Printf("jmdict entry %s: no usable writings, skipped", e.Id)
		}
	}
	return lex
}
