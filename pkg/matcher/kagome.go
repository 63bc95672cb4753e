package matcher

import (
	"unicode/utf8"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/soramame/yomu/pkg/dict"
)

// KagomeMatcher produces the same MatchedWord stream as Matcher, backed by
// full morphological analysis instead of the rule table. Used by the
// standalone analyzer where the IPA dictionary is available.
type KagomeMatcher struct {
	t *tokenizer.Tokenizer
}

// NewKagomeMatcher builds a matcher over the bundled IPA dictionary.
func NewKagomeMatcher() (*KagomeMatcher, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &KagomeMatcher{t: t}, nil
}

// Kagome IPA features:
// 0: part of speech, 1-3: sub-POS, 4: conjugation type,
// 5: conjugation form, 6: base form (lemma), 7: reading, 8: pronunciation.

// Match tokenizes text and emits one MatchedWord per Japanese-script token,
// with rune offsets derived from the token positions. The lattice path is
// deterministic for fixed input, so repeated calls yield identical results.
func (k *KagomeMatcher) Match(text string) []MatchedWord {
	tokens := k.t.Tokenize(text)
	var out []MatchedWord

	pos := 0
	for _, token := range tokens {
		n := utf8.RuneCountInString(token.Surface)
		if token.Class == tokenizer.DUMMY || n == 0 {
			continue
		}
		start := pos
		pos += n

		if !dict.IsScriptWord(token.Surface) {
			continue
		}
		features := token.Features()
		// Symbols carry no learning value.
		if len(features) > 0 && (features[0] == "記号" || features[0] == "補助記号") {
			continue
		}

		base := token.Surface
		var trace []string
		if len(features) > 6 && features[6] != "*" && features[6] != "" {
			base = features[6]
			if base != token.Surface && len(features) > 5 && features[5] != "*" {
				trace = []string{features[5]}
			}
		}

		out = append(out, MatchedWord{
			Surface:         token.Surface,
			BaseForm:        base,
			Start:           start,
			End:             start + n,
			InflectionTrace: trace,
		})
	}
	return out
}
