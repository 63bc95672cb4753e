package stats

import (
	"math"
	"sort"
)

// DefaultUnknownRank stands in for words with no frequency data when
// computing difficulty: mid-scale on the log axis.
const DefaultUnknownRank = 25000

const maxRank = 50000

func effectiveRank(rank int) int {
	if rank <= 0 {
		return DefaultUnknownRank
	}
	return rank
}

// wordDifficulty maps a frequency rank onto a 0-100 log scale.
func wordDifficulty(rank int) float64 {
	r := float64(effectiveRank(rank))
	d := math.Log10(r) / math.Log10(maxRank) * 100
	return math.Min(100, d)
}

// Difficulty is the composite difficulty report for a text unit.
type Difficulty struct {
	// Score is 0-100: 60% log-normalized average rank, 25% inverse
	// comprehension, 15% normalized average sentence length.
	Score float64
	Label string
	// MeanWordDifficulty and the percentiles describe the distribution of
	// per-unique-word rank difficulty.
	MeanWordDifficulty float64
	P10, P50, P90      float64
	AvgSentenceLen     float64
}

// Difficulty computes the composite score from the current totals.
func (r *Running) Difficulty() Difficulty {
	rankComponent := wordDifficultyFromAvg(r.AverageRank())
	comprehension := float64(r.ComprehensionPercent())

	avgSentLen := 0.0
	if r.sentences > 0 {
		avgSentLen = float64(r.sentLenSum) / float64(r.sentences)
	}
	lenComponent := math.Min(100, avgSentLen/25*100)

	score := 0.60*rankComponent + 0.25*(100-comprehension) + 0.15*lenComponent

	d := Difficulty{
		Score:          score,
		Label:          label(score),
		AvgSentenceLen: avgSentLen,
	}
	if len(r.wordDiffs) > 0 {
		sorted := append([]float64(nil), r.wordDiffs...)
		sort.Float64s(sorted)
		sum := 0.0
		for _, v := range sorted {
			sum += v
		}
		d.MeanWordDifficulty = sum / float64(len(sorted))
		d.P10 = percentile(sorted, 0.10)
		d.P50 = percentile(sorted, 0.50)
		d.P90 = percentile(sorted, 0.90)
	}
	return d
}

func wordDifficultyFromAvg(avgRank float64) float64 {
	if avgRank <= 0 {
		avgRank = DefaultUnknownRank
	}
	return math.Min(100, math.Log10(avgRank)/math.Log10(maxRank)*100)
}

func label(score float64) string {
	switch {
	case score <= 25:
		return "Easy"
	case score <= 50:
		return "Moderate"
	case score <= 75:
		return "Hard"
	}
	return "Very Hard"
}

// percentile takes a sorted slice and interpolates the p-th percentile.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
