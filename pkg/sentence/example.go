package sentence

import (
	"time"
	"unicode/utf8"
)

// Example is a candidate example sentence for a word, as retrieved from
// historical records.
type Example struct {
	Text   string
	SeenAt time.Time
}

// BestExample picks the best example sentence for a word from candidates.
// Scoring: +10 for a length of 20-80 runes, else +5 for 10-120, else nothing;
// +5 for sentence-final punctuation; +3 if seen within 7 days, +1 within 30.
// Ties keep the earliest candidate in input (first-seen) order.
func BestExample(now time.Time, candidates []Example) (Example, bool) {
	if len(candidates) == 0 {
		return Example{}, false
	}
	best := candidates[0]
	bestScore := exampleScore(now, best)
	for _, c := range candidates[1:] {
		if s := exampleScore(now, c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, true
}

func exampleScore(now time.Time, e Example) int {
	score := 0
	n := utf8.RuneCountInString(e.Text)
	switch {
	case n >= 20 && n <= 80:
		score += 10
	case n >= 10 && n <= 120:
		score += 5
	}
	if EndsWithFinalPunct(e.Text) {
		score += 5
	}
	age := now.Sub(e.SeenAt)
	switch {
	case age <= 7*24*time.Hour:
		score += 3
	case age <= 30*24*time.Hour:
		score += 1
	}
	return score
}
