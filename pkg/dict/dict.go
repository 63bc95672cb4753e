package dict

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Class identifies the inflectional class of a dictionary entry. Deinflection
// rules only validate against entries whose class they can produce.
type Class uint8

const (
	// ClassNone marks uninflecting entries (nouns, particles, adverbs).
	ClassNone Class = 1 << iota
	// ClassIchidan covers る-verbs (食べる, 見る).
	ClassIchidan
	// ClassGodan covers う-verbs (行く, 読む).
	ClassGodan
	// ClassAdjI covers i-adjectives (高い) and the negative ない chain.
	ClassAdjI
	// ClassSuru covers する and suru-compounds.
	ClassSuru
	// ClassKuru covers 来る.
	ClassKuru

	// ClassAny matches every class; the matcher starts deinflection here.
	ClassAny Class = 0xFF
)

var classNames = map[string]Class{
	"":      ClassNone,
	"n":     ClassNone,
	"v1":    ClassIchidan,
	"v5":    ClassGodan,
	"adj-i": ClassAdjI,
	"vs":    ClassSuru,
	"vk":    ClassKuru,
}

// ParseClass maps a class tag (JMdict part-of-speech style) to a Class.
// Unknown tags map to ClassNone.
func ParseClass(tag string) Class {
	if c, ok := classNames[tag]; ok {
		return c
	}
	// JMdict uses fine-grained godan tags (v5r, v5k, v5m, ...).
	if strings.HasPrefix(tag, "v5") {
		return ClassGodan
	}
	if strings.HasPrefix(tag, "vs") {
		return ClassSuru
	}
	if strings.HasPrefix(tag, "v1") {
		return ClassIchidan
	}
	return ClassNone
}

// Entry is one dictionary-form word the matcher can resolve to.
type Entry struct {
	Base  string
	Class Class
	// Rank is the 1-based frequency rank; 0 means unranked.
	Rank int
}

// Lexicon is the read-only base-form dictionary consumed by the Word Matcher.
type Lexicon struct {
	entries    map[string]Entry
	maxBaseLen int // in runes
}

// NewLexicon returns an empty lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{entries: make(map[string]Entry)}
}

// Add inserts a base form. An empty base form is a malformed entry and is
// rejected; callers log and continue. When the same base form is added twice
// the classes are merged and the better (lower nonzero) rank is kept.
func (l *Lexicon) Add(base string, class Class, rank int) error {
	base = strings.TrimSpace(base)
	if base == "" {
		return fmt.Errorf("empty base form")
	}
	if class == 0 {
		class = ClassNone
	}
	e, ok := l.entries[base]
	if ok {
		e.Class |= class
		if rank > 0 && (e.Rank == 0 || rank < e.Rank) {
			e.Rank = rank
		}
	} else {
		e = Entry{Base: base, Class: class, Rank: rank}
	}
	l.entries[base] = e
	if n := utf8.RuneCountInString(base); n > l.maxBaseLen {
		l.maxBaseLen = n
	}
	return nil
}

// Lookup returns the entry for a base form, if present.
func (l *Lexicon) Lookup(base string) (Entry, bool) {
	e, ok := l.entries[base]
	return e, ok
}

// Rank returns the frequency rank for a base form, 0 if unranked or absent.
func (l *Lexicon) Rank(base string) int {
	return l.entries[base].Rank
}

// Len returns the number of entries.
func (l *Lexicon) Len() int { return len(l.entries) }

// MaxBaseLen returns the longest base form length in runes.
func (l *Lexicon) MaxBaseLen() int { return l.maxBaseLen }

// Ranks returns a word→rank map view over all ranked entries.
func (l *Lexicon) Ranks() map[string]int {
	out := make(map[string]int)
	for base, e := range l.entries {
		if e.Rank > 0 {
			out[base] = e.Rank
		}
	}
	return out
}

// LoadLexiconFile reads a tab-separated lexicon file: base<TAB>class<TAB>rank.
// Class and rank columns are optional. Malformed lines are logged and
// skipped, never fatal.
func LoadLexiconFile(path string, logger *log.Logger) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lex := NewLexicon()
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		base := fields[0]
		class := ClassNone
		rank := 0
		if len(fields) > 1 {
			class = ParseClass(strings.TrimSpace(fields[1]))
		}
		if len(fields) > 2 {
			r, err := strconv.Atoi(strings.TrimSpace(fields[2]))
			if err != nil || r < 0 {
				if logger != nil {
					logger.Printf("lexicon %s:%d: bad rank %q, entry kept unranked", path, lineNo, fields[2])
				}
				r = 0
			}
			rank = r
		}
		if err := lex.Add(base, class, rank); err != nil {
			if logger != nil {
				logger.Printf("lexicon %s:%d: skipping entry: %v", path, lineNo, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lex, nil
}

// SaveLexiconFile writes the lexicon in the tab-separated format read by
// LoadLexiconFile. Used by the import-dict command.
func SaveLexiconFile(l *Lexicon, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for base, e := range l.entries {
		tag := classTag(e.Class)
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", base, tag, e.Rank); err != nil {
			return err
		}
	}
	return w.Flush()
}

func classTag(c Class) string {
	switch {
	case c&ClassIchidan != 0:
		return "v1"
	case c&ClassGodan != 0:
		return "v5"
	case c&ClassAdjI != 0:
		return "adj-i"
	case c&ClassSuru != 0:
		return "vs"
	case c&ClassKuru != 0:
		return "vk"
	}
	return "n"
}
