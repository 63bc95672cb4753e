package matcher

import (
	"github.com/soramame/yomu/pkg/vocab"
)

// Status is a word's standing against the reader's vocabulary.
type Status int

const (
	StatusUnknown Status = iota
	StatusKnown
	StatusIgnored
)

func (s Status) String() string {
	switch s {
	case StatusKnown:
		return "known"
	case StatusIgnored:
		return "ignored"
	}
	return "unknown"
}

// ClassifiedToken is a MatchedWord with its vocabulary status. Produced per
// scan; never persisted.
type ClassifiedToken struct {
	MatchedWord
	Status Status
	// FrequencyRank is 0 when the word is unranked.
	FrequencyRank int
	// Knowledge is nil for untracked words.
	Knowledge *vocab.Knowledge
}

// Classify resolves each match against the vocabulary snapshot. A word is
// known (or ignored) if either its base form or its surface appears in the
// corresponding set. Known wins when a form appears in both sets.
func Classify(matches []MatchedWord, v *vocab.Snapshot, ranks map[string]int) []ClassifiedToken {
	out := make([]ClassifiedToken, 0, len(matches))
	for _, m := range matches {
		tok := ClassifiedToken{MatchedWord: m, Status: StatusUnknown}
		switch {
		case v.IsKnown(m.BaseForm, m.Surface):
			tok.Status = StatusKnown
		case v.IsIgnored(m.BaseForm, m.Surface):
			tok.Status = StatusIgnored
		}
		if ranks != nil {
			tok.FrequencyRank = ranks[m.BaseForm]
		}
		if k, ok := v.KnowledgeOf(m.BaseForm); ok {
			kc := k
			tok.Knowledge = &kc
		}
		out = append(out, tok)
	}
	return out
}
