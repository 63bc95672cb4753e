// Package priority ranks unknown words for acquisition order using a
// multi-factor weighted score over each word's historical record.
package priority

import (
	"math"
	"sort"
	"time"

	"github.com/soramame/yomu/pkg/dict"
	"github.com/soramame/yomu/pkg/store"
	"github.com/soramame/yomu/pkg/vocab"
)

// Breakdown itemizes the six capped sub-scores.
type Breakdown struct {
	Frequency   float64
	Personal    float64
	Blocking    float64
	Recency     float64
	Familiarity float64
	I1Potential float64
}

// Score is a word's acquisition priority. Derived, recomputed on demand,
// never persisted.
type Score struct {
	Word      string
	Score     float64
	Breakdown Breakdown
}

// KnownScriptUnits collects the distinct Japanese script runes appearing in
// the known vocabulary, the basis of the orthographic-familiarity sub-score.
func KnownScriptUnits(v *vocab.Snapshot) map[rune]struct{} {
	units := make(map[rune]struct{})
	for _, w := range v.KnownWords() {
		for _, r := range w {
			if dict.IsScriptRune(r) {
				units[r] = struct{}{}
			}
		}
	}
	return units
}

// ScoreWord computes the priority score for one candidate from its history.
func ScoreWord(now time.Time, h store.WordHistory, knownUnits map[rune]struct{}) Score {
	var b Breakdown

	if h.Rank > 0 {
		b.Frequency = math.Max(0, 5-math.Log10(float64(h.Rank)+1)) * 10
	}
	b.Personal = math.Min(float64(h.Encounters)*2, 30)
	b.Blocking = math.Min(float64(h.DistinctLocations)*5, 25)
	if !h.LastSeen.IsZero() && now.Sub(h.LastSeen) < 24*time.Hour {
		b.Recency = 10
	}
	b.Familiarity = math.Min(float64(sharedUnits(h.Word, knownUnits))*3, 15)
	b.I1Potential = math.Min(float64(h.I1Sentences)*5, 25)

	total := b.Frequency + b.Personal + b.Blocking + b.Recency + b.Familiarity + b.I1Potential
	return Score{Word: h.Word, Score: total, Breakdown: b}
}

func sharedUnits(word string, knownUnits map[rune]struct{}) int {
	seen := make(map[rune]struct{})
	n := 0
	for _, r := range word {
		if !dict.IsScriptRune(r) {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		if _, ok := knownUnits[r]; ok {
			n++
		}
	}
	return n
}

// Rank scores every candidate and sorts descending. Ties preserve input
// order.
func Rank(now time.Time, histories []store.WordHistory, v *vocab.Snapshot) []Score {
	knownUnits := KnownScriptUnits(v)
	out := make([]Score, 0, len(histories))
	for _, h := range histories {
		out = append(out, ScoreWord(now, h, knownUnits))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// DocumentWords summarizes a document's token population for UnlockWords.
type DocumentWords struct {
	// KnownTokens counts tokens already comprehended (known status).
	KnownTokens int
	// UnknownOccurrences maps each unknown word to its occurrence count.
	UnknownOccurrences map[string]int
	// I1Potential maps words to their i+1 sentence counts, used only as a
	// tie-break.
	I1Potential map[string]int
}

// UnlockWords greedily selects unknown words by occurrence share until the
// document's projected comprehension reaches targetPercent. Returns the
// selected words in pick order.
func UnlockWords(doc DocumentWords, targetPercent int) []string {
	type cand struct {
		word  string
		count int
		i1    int
	}
	cands := make([]cand, 0, len(doc.UnknownOccurrences))
	unknownTotal := 0
	for w, c := range doc.UnknownOccurrences {
		cands = append(cands, cand{word: w, count: c, i1: doc.I1Potential[w]})
		unknownTotal += c
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].count != cands[j].count {
			return cands[i].count > cands[j].count
		}
		if cands[i].i1 != cands[j].i1 {
			return cands[i].i1 > cands[j].i1
		}
		return cands[i].word < cands[j].word
	})

	den := doc.KnownTokens + unknownTotal
	if den == 0 {
		return nil
	}
	projected := func(knownOcc int) int {
		return int(float64(knownOcc)/float64(den)*100 + 0.5)
	}

	known := doc.KnownTokens
	var picks []string
	for _, c := range cands {
		if projected(known) >= targetPercent {
			break
		}
		picks = append(picks, c.word)
		known += c.count
	}
	return picks
}
