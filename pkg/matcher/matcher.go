// Package matcher segments Japanese text into dictionary-form words using
// longest-match scanning with deinflection, and classifies the result against
// a vocabulary snapshot.
package matcher

import (
	"github.com/soramame/yomu/pkg/dict"
)

// MatchedWord is one recognized word with its position in the scanned text.
// Start and End are rune offsets; End is exclusive. InflectionTrace lists the
// deinflection rules applied to reach the base form (diagnostic only).
type MatchedWord struct {
	Surface         string
	BaseForm        string
	Start           int
	End             int
	InflectionTrace []string
}

// Matcher resolves text against a lexicon with a deinflection rule table.
// It carries no per-call state: Match is pure and may be re-run on the same
// text unit any number of times.
type Matcher struct {
	lex       *dict.Lexicon
	deinf     *dict.Deinflector
	maxWindow int
}

// New builds a matcher. A nil deinflector disables deinflection; only exact
// base forms will match.
func New(lex *dict.Lexicon, deinf *dict.Deinflector) *Matcher {
	maxWindow := lex.MaxBaseLen()
	if deinf != nil {
		maxWindow += deinf.MaxExtraRunes()
	}
	if maxWindow < 1 {
		maxWindow = 1
	}
	return &Matcher{lex: lex, deinf: deinf, maxWindow: maxWindow}
}

// Match scans text left to right and returns non-overlapping matches in
// document order. At each position the longest matching surface wins; equal
// lengths are broken by fewer deinflection steps. Spans the matcher cannot
// resolve, and runs of non-Japanese script, are skipped without being
// emitted. An empty result is valid.
func (m *Matcher) Match(text string) []MatchedWord {
	runes := []rune(text)
	var out []MatchedWord

	i := 0
	for i < len(runes) {
		if !dict.IsScriptRune(runes[i]) {
			i++
			continue
		}

		mw, ok := m.matchAt(runes, i)
		if !ok {
			i++
			continue
		}
		out = append(out, mw)
		i = mw.End
	}
	return out
}

// matchAt tries windows from longest to shortest at position i. Within one
// window a direct lexicon hit beats any deinflected candidate; deinflected
// candidates arrive ordered by step count, so the first valid one wins.
func (m *Matcher) matchAt(runes []rune, i int) (MatchedWord, bool) {
	limit := m.maxWindow
	if rest := len(runes) - i; rest < limit {
		limit = rest
	}

	for n := limit; n >= 1; n-- {
		// A surface cannot cross into non-script text.
		if !dict.IsScriptRune(runes[i+n-1]) {
			continue
		}
		surface := string(runes[i : i+n])

		if _, ok := m.lex.Lookup(surface); ok {
			return MatchedWord{Surface: surface, BaseForm: surface, Start: i, End: i + n}, true
		}
		if m.deinf == nil {
			continue
		}
		for _, cand := range m.deinf.Deinflect(surface) {
			entry, ok := m.lex.Lookup(cand.Form)
			if !ok {
				continue
			}
			if cand.Class != dict.ClassAny && entry.Class&cand.Class == 0 {
				continue
			}
			return MatchedWord{
				Surface:         surface,
				BaseForm:        cand.Form,
				Start:           i,
				End:             i + n,
				InflectionTrace: cand.Trace,
			}, true
		}
	}
	return MatchedWord{}, false
}
