// Package stats maintains running comprehension statistics over classified
// tokens. A Running value is owned by a single scan generation and folded
// into monotonically as chunks arrive; it is reset by discarding it, never
// merged across generations.
package stats

import (
	"sort"
	"unicode/utf8"

	"github.com/soramame/yomu/pkg/dict"
	"github.com/soramame/yomu/pkg/matcher"
	"github.com/soramame/yomu/pkg/vocab"
)

// FreqBand buckets words by frequency rank.
type FreqBand int

const (
	BandVeryCommon FreqBand = iota // rank 1-1000
	BandCommon                     // 1001-5000
	BandMedium                     // 5001-15000
	BandUncommon                   // 15001-50000
	BandRare                       // beyond 50000
	numBands
)

func (b FreqBand) String() string {
	switch b {
	case BandVeryCommon:
		return "very-common"
	case BandCommon:
		return "common"
	case BandMedium:
		return "medium"
	case BandUncommon:
		return "uncommon"
	}
	return "rare"
}

func bandForRank(rank int) FreqBand {
	switch {
	case rank <= 1000:
		return BandVeryCommon
	case rank <= 5000:
		return BandCommon
	case rank <= 15000:
		return BandMedium
	case rank <= 50000:
		return BandUncommon
	}
	return BandRare
}

// WordCount pairs an unknown word with its occurrence count.
type WordCount struct {
	Word  string
	Count int
}

// Running accumulates token statistics for one scan generation.
type Running struct {
	totalTokens   int
	knownTokens   int
	unknownTokens int
	ignoredTokens int

	unknownCounts map[string]int
	unknownOrder  []string

	bands [numBands]int

	// first classification for a word in a generation sticks
	seenWords  map[string]vocab.Band
	bandCounts map[vocab.Band]int

	rankSum      float64
	rankedTokens int

	wordDiffs []float64 // per unique word, for percentile reporting

	sentLenSum int
	sentences  int

	folds int
}

// New creates an empty Running for a fresh scan generation.
func New() *Running {
	return &Running{
		unknownCounts: make(map[string]int),
		seenWords:     make(map[string]vocab.Band),
		bandCounts:    make(map[vocab.Band]int),
	}
}

// Fold accumulates one chunk of classified tokens. Tokens outside the target
// script are excluded from every count. Folds applied in chunk order make
// all counters monotonic and deterministic for a fixed document+vocabulary.
func (r *Running) Fold(tokens []matcher.ClassifiedToken) {
	for _, t := range tokens {
		if !dict.IsScriptWord(t.Surface) {
			continue
		}
		r.totalTokens++
		switch t.Status {
		case matcher.StatusKnown:
			r.knownTokens++
		case matcher.StatusIgnored:
			r.ignoredTokens++
		default:
			r.unknownTokens++
			if _, seen := r.unknownCounts[t.BaseForm]; !seen {
				r.unknownOrder = append(r.unknownOrder, t.BaseForm)
			}
			r.unknownCounts[t.BaseForm]++
		}

		rank := t.FrequencyRank
		if rank > 0 {
			r.bands[bandForRank(rank)]++
			r.rankedTokens++
		}
		r.rankSum += float64(effectiveRank(rank))

		if _, seen := r.seenWords[t.BaseForm]; !seen {
			band := bandOfToken(t)
			r.seenWords[t.BaseForm] = band
			r.bandCounts[band]++
			r.wordDiffs = append(r.wordDiffs, wordDifficulty(rank))
		}
	}
	r.folds++
}

// ObserveSentence records one sentence's length for the difficulty model.
func (r *Running) ObserveSentence(text string) {
	r.sentLenSum += utf8.RuneCountInString(text)
	r.sentences++
}

func bandOfToken(t matcher.ClassifiedToken) vocab.Band {
	if t.Knowledge != nil {
		k := *t.Knowledge
		switch {
		case k.IntervalDays >= 21:
			return vocab.BandMature
		case k.IntervalDays >= 7:
			return vocab.BandYoung
		case k.Reps > 0:
			return vocab.BandLearning
		default:
			return vocab.BandNew
		}
	}
	if t.Status == matcher.StatusKnown {
		return vocab.BandMature
	}
	return vocab.BandTrueUnknown
}

// TotalTokens returns the running token count.
func (r *Running) TotalTokens() int { return r.totalTokens }

// ComprehensionPercent returns round(known/(known+unknown)*100). With no
// known or unknown tokens yet it reports 100.
func (r *Running) ComprehensionPercent() int {
	den := r.knownTokens + r.unknownTokens
	if den == 0 {
		return 100
	}
	return int(float64(r.knownTokens)/float64(den)*100 + 0.5)
}

// AverageRank returns the mean effective frequency rank over counted tokens;
// unranked tokens contribute the default mid-scale rank.
func (r *Running) AverageRank() float64 {
	if r.totalTokens == 0 {
		return 0
	}
	return r.rankSum / float64(r.totalTokens)
}

// TopUnknown returns up to n unknown words by occurrence count, ties broken
// by first-seen order.
func (r *Running) TopUnknown(n int) []WordCount {
	out := make([]WordCount, 0, len(r.unknownOrder))
	for _, w := range r.unknownOrder {
		out = append(out, WordCount{Word: w, Count: r.unknownCounts[w]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Summary is an immutable snapshot of the running totals, safe to hand to
// progress subscribers while the scan keeps folding.
type Summary struct {
	TotalTokens          int
	KnownTokens          int
	UnknownTokens        int
	IgnoredTokens        int
	ComprehensionPercent int
	AverageRank          float64
	Bands                map[string]int
	BandPercents         map[string]float64
	KnowledgeBands       map[string]int
	TopUnknown           []WordCount
	UniqueWords          int
	Sentences            int
	Difficulty           Difficulty
}

// Snapshot copies the current totals into a Summary.
func (r *Running) Snapshot() Summary {
	s := Summary{
		TotalTokens:          r.totalTokens,
		KnownTokens:          r.knownTokens,
		UnknownTokens:        r.unknownTokens,
		IgnoredTokens:        r.ignoredTokens,
		ComprehensionPercent: r.ComprehensionPercent(),
		AverageRank:          r.AverageRank(),
		Bands:                make(map[string]int, int(numBands)),
		BandPercents:         make(map[string]float64, int(numBands)),
		KnowledgeBands:       make(map[string]int, len(r.bandCounts)),
		TopUnknown:           r.TopUnknown(20),
		UniqueWords:          len(r.seenWords),
		Sentences:            r.sentences,
		Difficulty:           r.Difficulty(),
	}
	for b := BandVeryCommon; b < numBands; b++ {
		s.Bands[b.String()] = r.bands[b]
		if r.rankedTokens > 0 {
			s.BandPercents[b.String()] = float64(r.bands[b]) / float64(r.rankedTokens) * 100
		}
	}
	for band, c := range r.bandCounts {
		s.KnowledgeBands[band.String()] = c
	}
	return s
}
