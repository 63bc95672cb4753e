package priority

import (
	"math"
	"testing"
	"time"

	"github.com/soramame/yomu/pkg/store"
	"github.com/soramame/yomu/pkg/vocab"
)

var now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func TestFrequencySubScore(t *testing.T) {
	s := ScoreWord(now, store.WordHistory{Word: "謎", Rank: 500}, nil)
	want := (5 - math.Log10(501)) * 10
	if math.Abs(s.Breakdown.Frequency-want) > 1e-9 {
		t.Fatalf("expected frequency score %v, got %v", want, s.Breakdown.Frequency)
	}
	// Around rank 500 the frequency component sits near 23.
	if s.Breakdown.Frequency < 22 || s.Breakdown.Frequency > 24 {
		t.Fatalf("unexpected magnitude: %v", s.Breakdown.Frequency)
	}

	// Very rare words bottom out at zero, never negative.
	s = ScoreWord(now, store.WordHistory{Word: "珍", Rank: 200000}, nil)
	if s.Breakdown.Frequency != 0 {
		t.Fatalf("expected clamp to 0, got %v", s.Breakdown.Frequency)
	}

	// Unranked words get no frequency score.
	s = ScoreWord(now, store.WordHistory{Word: "無"}, nil)
	if s.Breakdown.Frequency != 0 {
		t.Fatalf("expected 0 for unranked, got %v", s.Breakdown.Frequency)
	}
}

func TestPersonalAndBlockingCaps(t *testing.T) {
	h := store.WordHistory{Word: "謎", Encounters: 40, DistinctLocations: 12}
	s := ScoreWord(now, h, nil)
	if s.Breakdown.Personal != 30 {
		t.Fatalf("expected personal capped at 30, got %v", s.Breakdown.Personal)
	}
	if s.Breakdown.Blocking != 25 {
		t.Fatalf("expected blocking capped at 25, got %v", s.Breakdown.Blocking)
	}

	h = store.WordHistory{Word: "謎", Encounters: 4, DistinctLocations: 2}
	s = ScoreWord(now, h, nil)
	if s.Breakdown.Personal != 8 || s.Breakdown.Blocking != 10 {
		t.Fatalf("expected uncapped 8/10, got %v/%v", s.Breakdown.Personal, s.Breakdown.Blocking)
	}
}

func TestRecencySubScore(t *testing.T) {
	recent := store.WordHistory{Word: "謎", LastSeen: now.Add(-2 * time.Hour)}
	if s := ScoreWord(now, recent, nil); s.Breakdown.Recency != 10 {
		t.Fatalf("expected recency bonus, got %v", s.Breakdown.Recency)
	}
	stale := store.WordHistory{Word: "謎", LastSeen: now.Add(-25 * time.Hour)}
	if s := ScoreWord(now, stale, nil); s.Breakdown.Recency != 0 {
		t.Fatalf("expected no bonus past a day, got %v", s.Breakdown.Recency)
	}
	never := store.WordHistory{Word: "謎"}
	if s := ScoreWord(now, never, nil); s.Breakdown.Recency != 0 {
		t.Fatalf("expected no bonus for never-seen, got %v", s.Breakdown.Recency)
	}
}

func TestFamiliaritySubScore(t *testing.T) {
	units := map[rune]struct{}{'日': {}, '本': {}}
	s := ScoreWord(now, store.WordHistory{Word: "日本"}, units)
	if s.Breakdown.Familiarity != 6 {
		t.Fatalf("expected 2 shared units * 3, got %v", s.Breakdown.Familiarity)
	}

	// Repeated runes count once.
	s = ScoreWord(now, store.WordHistory{Word: "日日"}, units)
	if s.Breakdown.Familiarity != 3 {
		t.Fatalf("expected duplicate rune counted once, got %v", s.Breakdown.Familiarity)
	}

	// The cap kicks in at five shared units.
	many := map[rune]struct{}{}
	for _, r := range "一二三四五六七" {
		many[r] = struct{}{}
	}
	s = ScoreWord(now, store.WordHistory{Word: "一二三四五六七"}, many)
	if s.Breakdown.Familiarity != 15 {
		t.Fatalf("expected familiarity capped at 15, got %v", s.Breakdown.Familiarity)
	}
}

func TestI1SubScore(t *testing.T) {
	s := ScoreWord(now, store.WordHistory{Word: "謎", I1Sentences: 2}, nil)
	if s.Breakdown.I1Potential != 10 {
		t.Fatalf("expected 10, got %v", s.Breakdown.I1Potential)
	}
	s = ScoreWord(now, store.WordHistory{Word: "謎", I1Sentences: 9}, nil)
	if s.Breakdown.I1Potential != 25 {
		t.Fatalf("expected cap at 25, got %v", s.Breakdown.I1Potential)
	}
}

func TestScoreSumsBreakdown(t *testing.T) {
	h := store.WordHistory{
		Word: "謎", Rank: 500, Encounters: 4, DistinctLocations: 2,
		LastSeen: now.Add(-time.Hour), I1Sentences: 1,
	}
	s := ScoreWord(now, h, nil)
	b := s.Breakdown
	sum := b.Frequency + b.Personal + b.Blocking + b.Recency + b.Familiarity + b.I1Potential
	if math.Abs(s.Score-sum) > 1e-9 {
		t.Fatalf("score %v differs from component sum %v", s.Score, sum)
	}
}

func TestRankOrdersDescendingStable(t *testing.T) {
	v := vocab.NewSnapshot(nil, nil, nil)
	histories := []store.WordHistory{
		{Word: "低", Encounters: 1},
		{Word: "甲", Encounters: 5},
		{Word: "乙", Encounters: 5}, // identical score to 甲
	}
	out := Rank(now, histories, v)
	if out[0].Word != "甲" || out[1].Word != "乙" || out[2].Word != "低" {
		t.Fatalf("unexpected order: %+v", out)
	}
}

func TestKnownScriptUnits(t *testing.T) {
	v := vocab.NewSnapshot([]string{"日本", "本棚", "abc"}, nil, nil)
	units := KnownScriptUnits(v)
	for _, r := range []rune{'日', '本', '棚'} {
		if _, ok := units[r]; !ok {
			t.Errorf("expected %q in known units", r)
		}
	}
	if _, ok := units['a']; ok {
		t.Error("expected Latin runes excluded")
	}
	if len(units) != 3 {
		t.Fatalf("expected 3 distinct units, got %d", len(units))
	}
}

func TestUnlockWordsGreedy(t *testing.T) {
	doc := DocumentWords{
		KnownTokens: 60,
		UnknownOccurrences: map[string]int{
			"甲": 20,
			"乙": 15,
			"丙": 5,
		},
	}
	picks := UnlockWords(doc, 90)
	if len(picks) != 2 || picks[0] != "甲" || picks[1] != "乙" {
		t.Fatalf("expected [甲 乙], got %v", picks)
	}
}

func TestUnlockWordsTargetAlreadyMet(t *testing.T) {
	doc := DocumentWords{
		KnownTokens:        95,
		UnknownOccurrences: map[string]int{"甲": 5},
	}
	if picks := UnlockWords(doc, 90); len(picks) != 0 {
		t.Fatalf("expected no picks at target, got %v", picks)
	}
}

func TestUnlockWordsTieBreaks(t *testing.T) {
	doc := DocumentWords{
		KnownTokens: 10,
		UnknownOccurrences: map[string]int{
			"甲": 5,
			"乙": 5,
			"丙": 5,
		},
		I1Potential: map[string]int{"乙": 3},
	}
	picks := UnlockWords(doc, 100)
	// Equal counts: higher i+1 potential first, then lexicographic.
	if len(picks) != 3 || picks[0] != "乙" || picks[1] != "甲" || picks[2] != "丙" {
		t.Fatalf("unexpected tie-break order: %v", picks)
	}
}

func TestUnlockWordsEmptyDocument(t *testing.T) {
	if picks := UnlockWords(DocumentWords{}, 90); picks != nil {
		t.Fatalf("expected nil picks for empty document, got %v", picks)
	}
}
