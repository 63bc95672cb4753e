package store

import "time"

// Encounter is one recorded sighting of a word in context. Write-once,
// append-only from the engine's perspective.
type Encounter struct {
	ID            int64
	Word          string
	Surface       string
	SentenceText  string
	SentenceHash  string
	Location      string
	ContentID     string
	Timestamp     time.Time
	FrequencyRank int
}

// SentenceRecord is a mined sentence keyed by a content hash of its text.
// UnknownCount is a snapshot taken at mining time and is never updated in
// place once stored.
type SentenceRecord struct {
	Hash         string
	Text         string
	Location     string
	UnknownWords []string
	UnknownCount int
	Timestamp    time.Time
}

// WordHistory aggregates a word's historical record for priority scoring.
type WordHistory struct {
	Word              string
	Rank              int
	Encounters        int
	DistinctLocations int
	LastSeen          time.Time
	I1Sentences       int
}
