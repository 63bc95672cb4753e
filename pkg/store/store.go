// Package store persists encounters and mined sentences in SQLite and serves
// the read queries used by the deduplicator and the priority scorer.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite database. It manages its own schema but issues no
// DDL beyond the initial migration.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory database, used by tests.
func OpenMemory() (*Store, error) {
	return Open(":memory:")
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS encounters (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			word TEXT NOT NULL,
			surface TEXT NOT NULL,
			sentence_text TEXT NOT NULL,
			sentence_hash TEXT NOT NULL,
			location TEXT NOT NULL,
			content_id TEXT NOT NULL DEFAULT '',
			timestamp TIMESTAMP NOT NULL,
			frequency_rank INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_encounters_word_location ON encounters(word, location)`,
		`CREATE INDEX IF NOT EXISTS idx_encounters_word ON encounters(word)`,
		`CREATE TABLE IF NOT EXISTS sentences (
			hash TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			location TEXT NOT NULL,
			unknown_words TEXT NOT NULL,
			unknown_count INTEGER NOT NULL,
			timestamp TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sentences_unknown_count ON sentences(unknown_count)`,
		`CREATE TABLE IF NOT EXISTS sentence_words (
			sentence_hash TEXT NOT NULL REFERENCES sentences(hash),
			word TEXT NOT NULL,
			PRIMARY KEY (sentence_hash, word)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sentence_words_word ON sentence_words(word)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// AppendEncounters inserts a batch of encounters in one transaction.
func (s *Store) AppendEncounters(ctx context.Context, encs []Encounter) error {
	if len(encs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin encounters tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO encounters
		(word, surface, sentence_text, sentence_hash, location, content_id, timestamp, frequency_rank)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range encs {
		if _, err := stmt.ExecContext(ctx, e.Word, e.Surface, e.SentenceText, e.SentenceHash,
			e.Location, e.ContentID, e.Timestamp, e.FrequencyRank); err != nil {
			return fmt.Errorf("insert encounter %s: %w", e.Word, err)
		}
	}
	return tx.Commit()
}

// QueryEncounters returns encounters for a (word, location) pair at or after
// since, used by the time-window dedup check.
func (s *Store) QueryEncounters(ctx context.Context, word, location string, since time.Time) ([]Encounter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, word, surface, sentence_text, sentence_hash,
		location, content_id, timestamp, frequency_rank
		FROM encounters WHERE word = ? AND location = ? AND timestamp >= ?
		ORDER BY timestamp`, word, location, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEncounters(rows)
}

// EncountersByWord returns all encounters for a word, oldest first.
func (s *Store) EncountersByWord(ctx context.Context, word string) ([]Encounter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, word, surface, sentence_text, sentence_hash,
		location, content_id, timestamp, frequency_rank
		FROM encounters WHERE word = ? ORDER BY timestamp`, word)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEncounters(rows)
}

func scanEncounters(rows *sql.Rows) ([]Encounter, error) {
	var out []Encounter
	for rows.Next() {
		var e Encounter
		if err := rows.Scan(&e.ID, &e.Word, &e.Surface, &e.SentenceText, &e.SentenceHash,
			&e.Location, &e.ContentID, &e.Timestamp, &e.FrequencyRank); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AppendSentences inserts sentence records, keeping the first stored snapshot
// for a hash (historical snapshot semantics: no update in place).
func (s *Store) AppendSentences(ctx context.Context, recs []SentenceRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sentences tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, r := range recs {
		words, err := json.Marshal(r.UnknownWords)
		if err != nil {
			return fmt.Errorf("marshal unknown words for %s: %w", r.Hash, err)
		}
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO sentences
			(hash, text, location, unknown_words, unknown_count, timestamp)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.Hash, r.Text, r.Location, string(words), r.UnknownCount, r.Timestamp)
		if err != nil {
			return fmt.Errorf("insert sentence %s: %w", r.Hash, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue // already recorded, snapshot kept
		}
		for _, w := range r.UnknownWords {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO sentence_words (sentence_hash, word) VALUES (?, ?)`,
				r.Hash, w); err != nil {
				return fmt.Errorf("insert sentence word %s/%s: %w", r.Hash, w, err)
			}
		}
	}
	return tx.Commit()
}

// SentencesByUnknownCount returns stored sentences with the given unknown
// count, oldest first.
func (s *Store) SentencesByUnknownCount(ctx context.Context, count int) ([]SentenceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT hash, text, location, unknown_words, unknown_count, timestamp
		FROM sentences WHERE unknown_count = ? ORDER BY timestamp`, count)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSentences(rows)
}

// SentencesForWord returns stored sentences whose unknown set contains word,
// oldest first. With i1Only set, only i+1 sentences are returned.
func (s *Store) SentencesForWord(ctx context.Context, word string, i1Only bool) ([]SentenceRecord, error) {
	q := `SELECT s.hash, s.text, s.location, s.unknown_words, s.unknown_count, s.timestamp
		FROM sentences s JOIN sentence_words sw ON sw.sentence_hash = s.hash
		WHERE sw.word = ?`
	if i1Only {
		q += ` AND s.unknown_count = 1`
	}
	q += ` ORDER BY s.timestamp`
	rows, err := s.db.QueryContext(ctx, q, word)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSentences(rows)
}

func scanSentences(rows *sql.Rows) ([]SentenceRecord, error) {
	var out []SentenceRecord
	for rows.Next() {
		var r SentenceRecord
		var words string
		if err := rows.Scan(&r.Hash, &r.Text, &r.Location, &words, &r.UnknownCount, &r.Timestamp); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(words), &r.UnknownWords); err != nil {
			return nil, fmt.Errorf("unmarshal unknown words for %s: %w", r.Hash, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DistinctEncounterWords returns every word with at least one recorded
// encounter, most-encountered first.
func (s *Store) DistinctEncounterWords(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT word FROM encounters
		GROUP BY word ORDER BY COUNT(*) DESC, word`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// WordHistory aggregates a word's record for the priority scorer.
func (s *Store) WordHistory(ctx context.Context, word string, rank int) (WordHistory, error) {
	h := WordHistory{Word: word, Rank: rank}

	var last sql.NullTime
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT location), MAX(timestamp)
		FROM encounters WHERE word = ?`, word).Scan(&h.Encounters, &h.DistinctLocations, &last)
	if err != nil {
		return h, err
	}
	if last.Valid {
		h.LastSeen = last.Time
	}

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*)
		FROM sentences s JOIN sentence_words sw ON sw.sentence_hash = s.hash
		WHERE sw.word = ? AND s.unknown_count = 1`, word).Scan(&h.I1Sentences)
	if err != nil {
		return h, err
	}
	return h, nil
}
