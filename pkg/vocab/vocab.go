// Package vocab holds the caller-owned vocabulary snapshot the engine
// classifies against. The engine never mutates a snapshot; vocabulary changes
// are applied by the caller, which then supplies a fresh snapshot and
// discards any scan state built on the old one.
package vocab

import "time"

// Knowledge describes the spaced-repetition state of a tracked word.
type Knowledge struct {
	Level        int
	IntervalDays int
	Reps         int
	Suspended    bool
}

// Band buckets a word's knowledge depth for aggregate reporting.
type Band int

const (
	BandTrueUnknown Band = iota
	BandNew
	BandLearning
	BandYoung
	BandMature
)

func (b Band) String() string {
	switch b {
	case BandMature:
		return "mature"
	case BandYoung:
		return "young"
	case BandLearning:
		return "learning"
	case BandNew:
		return "new"
	}
	return "true-unknown"
}

// Snapshot is an immutable view of the reader's vocabulary, taken per scan.
type Snapshot struct {
	known   map[string]struct{}
	ignored map[string]struct{}
	levels  map[string]Knowledge
	taken   time.Time
}

// NewSnapshot builds a snapshot from known and ignored word lists and
// per-word knowledge state. Inputs are copied; the caller may keep mutating
// its own sets afterwards.
func NewSnapshot(known, ignored []string, levels map[string]Knowledge) *Snapshot {
	s := &Snapshot{
		known:   make(map[string]struct{}, len(known)),
		ignored: make(map[string]struct{}, len(ignored)),
		levels:  make(map[string]Knowledge, len(levels)),
		taken:   time.Now(),
	}
	for _, w := range known {
		s.known[w] = struct{}{}
	}
	for _, w := range ignored {
		s.ignored[w] = struct{}{}
	}
	for w, k := range levels {
		s.levels[w] = k
	}
	return s
}

// Taken reports when the snapshot was created.
func (s *Snapshot) Taken() time.Time { return s.taken }

// IsKnown reports whether any of the given forms is in the known set.
func (s *Snapshot) IsKnown(forms ...string) bool {
	for _, f := range forms {
		if _, ok := s.known[f]; ok {
			return true
		}
	}
	return false
}

// IsIgnored reports whether any of the given forms is in the ignored set.
// Known takes precedence over ignored: callers must check IsKnown first.
func (s *Snapshot) IsIgnored(forms ...string) bool {
	for _, f := range forms {
		if _, ok := s.ignored[f]; ok {
			return true
		}
	}
	return false
}

// KnowledgeOf returns the tracked state for a word, if any.
func (s *Snapshot) KnowledgeOf(word string) (Knowledge, bool) {
	k, ok := s.levels[word]
	return k, ok
}

// KnownWords returns the known set as a slice. Order is unspecified.
func (s *Snapshot) KnownWords() []string {
	out := make([]string, 0, len(s.known))
	for w := range s.known {
		out = append(out, w)
	}
	return out
}

// KnownCount returns the size of the known set.
func (s *Snapshot) KnownCount() int { return len(s.known) }

// BandOf buckets a word by its knowledge state. A known word with no tracked
// state counts as mature (established vocabulary no longer under review).
func (s *Snapshot) BandOf(word string) Band {
	if k, ok := s.levels[word]; ok {
		switch {
		case k.IntervalDays >= 21:
			return BandMature
		case k.IntervalDays >= 7:
			return BandYoung
		case k.Reps > 0:
			return BandLearning
		default:
			return BandNew
		}
	}
	if s.IsKnown(word) {
		return BandMature
	}
	return BandTrueUnknown
}
