// Package encounter turns classified tokens into durable encounter records,
// suppressing duplicates at session and time-window level, and batches them
// for the persistent store.
package encounter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/soramame/yomu/pkg/sentence"
	"github.com/soramame/yomu/pkg/store"
)

// ErrTornDown marks a flush failure caused by the host context having been
// torn down. A batch failing this way is discarded instead of re-queued;
// retrying into a dead context would only leak memory.
var ErrTornDown = errors.New("host context torn down")

// ErrRecorderClosed is returned by Record after Close.
var ErrRecorderClosed = errors.New("encounter recorder closed")

// Sink is the narrow store contract the recorder writes through.
type Sink interface {
	QueryEncounters(ctx context.Context, word, location string, since time.Time) ([]store.Encounter, error)
	AppendEncounters(ctx context.Context, encs []store.Encounter) error
	AppendSentences(ctx context.Context, recs []store.SentenceRecord) error
}

// Config tunes the recorder's buffering and dedup behavior. Zero values pick
// the defaults.
type Config struct {
	// BufferSize triggers a flush when the buffer reaches it (default 200).
	BufferSize int
	// FlushInterval bounds how long records sit unflushed (default 2s,
	// negative disables the timer).
	FlushInterval time.Duration
	// DedupWindow is the trailing window for the store-side duplicate check
	// (default 4h).
	DedupWindow time.Duration
}

func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = 200
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = 2 * time.Second
	}
	if c.DedupWindow <= 0 {
		c.DedupWindow = 4 * time.Hour
	}
	return c
}

type sessionKey struct {
	word      string
	location  string
	contentID string
	hash      string
}

type batch struct {
	encs  []store.Encounter
	sents []store.SentenceRecord
}

// Recorder accumulates encounters and sentence records and flushes them in
// batches. One recorder exists per document context; its session-dedup state
// is reset only on content-identity change or explicit clear.
type Recorder struct {
	cfg  Config
	sink Sink

	mu        sync.Mutex
	buf       []store.Encounter
	sents     []store.SentenceRecord
	seen      map[sessionKey]struct{}
	location  string
	contentID string
	closed    bool

	commitCh chan batch
	ctx      context.Context
	cancel   context.CancelFunc
	ticker   *time.Ticker
	wg       sync.WaitGroup

	// Logger, if set, receives flush failures and dropped-batch notices.
	Logger *log.Logger
	// OnError is invoked with every asynchronous flush error.
	OnError func(error)
	// Now stands in for time.Now in tests.
	Now func() time.Time

	errMu   sync.Mutex
	lastErr error
}

// NewRecorder starts a recorder writing through sink.
func NewRecorder(sink Sink, cfg Config) *Recorder {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	r := &Recorder{
		cfg:      cfg,
		sink:     sink,
		seen:     make(map[sessionKey]struct{}),
		commitCh: make(chan batch, 2),
		ctx:      ctx,
		cancel:   cancel,
		Now:      time.Now,
	}
	r.wg.Add(1)
	go r.committer()

	if cfg.FlushInterval > 0 {
		r.ticker = time.NewTicker(cfg.FlushInterval)
		r.wg.Add(1)
		go r.tickLoop()
	}
	return r
}

// SetContext sets the ambient location and content identity for subsequent
// records. A content-identity change flushes the buffer and resets the
// session-dedup state: a new content within the same location is a different
// document.
func (r *Recorder) SetContext(location, contentID string) {
	r.mu.Lock()
	changed := contentID != r.contentID || location != r.location
	if changed && (len(r.buf) > 0 || len(r.sents) > 0) {
		r.flushLocked()
	}
	if changed {
		r.seen = make(map[sessionKey]struct{})
	}
	r.location = location
	r.contentID = contentID
	r.mu.Unlock()
}

// Record queues one encounter. Duplicate sightings of the same word in the
// same sentence at the same location and content are suppressed for the
// whole session.
func (r *Recorder) Record(word, surface, sentenceText string, rank int) error {
	hash := sentence.Hash(sentenceText)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRecorderClosed
	}
	key := sessionKey{word: word, location: r.location, contentID: r.contentID, hash: hash}
	if _, dup := r.seen[key]; dup {
		return nil
	}
	r.seen[key] = struct{}{}

	r.buf = append(r.buf, store.Encounter{
		Word:          word,
		Surface:       surface,
		SentenceText:  sentenceText,
		SentenceHash:  hash,
		Location:      r.location,
		ContentID:     r.contentID,
		Timestamp:     r.Now(),
		FrequencyRank: rank,
	})
	if len(r.buf) >= r.cfg.BufferSize {
		r.flushLocked()
	}
	return nil
}

// RecordSentence queues a mined sentence record, persisted with the next
// encounter flush.
func (r *Recorder) RecordSentence(g sentence.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRecorderClosed
	}
	r.sents = append(r.sents, store.SentenceRecord{
		Hash:         sentence.Hash(g.Text),
		Text:         g.Text,
		Location:     r.location,
		UnknownWords: append([]string(nil), g.UnknownWords...),
		UnknownCount: g.UnknownCount(),
		Timestamp:    r.Now(),
	})
	return nil
}

// FlushNow forces a flush of whatever is buffered, e.g. on visibility loss.
func (r *Recorder) FlushNow() {
	r.mu.Lock()
	if len(r.buf) > 0 || len(r.sents) > 0 {
		r.flushLocked()
	}
	r.mu.Unlock()
}

// flushLocked assumes r.mu is held. It hands the buffered batch to the
// committer; submission backpressure propagates to callers.
func (r *Recorder) flushLocked() {
	b := batch{encs: r.buf, sents: r.sents}
	r.buf = nil
	r.sents = nil

	select {
	case r.commitCh <- b:
	case <-r.ctx.Done():
		err := fmt.Errorf("encounter recorder: dropping batch of %d records on shutdown", len(b.encs))
		r.noteErr(err)
	}
}

func (r *Recorder) tickLoop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.ticker.C:
			r.FlushNow()
		}
	}
}

func (r *Recorder) committer() {
	defer r.wg.Done()
	var retry batch
	for b := range r.commitCh {
		if len(retry.encs) > 0 || len(retry.sents) > 0 {
			// Older failed records go first so order is preserved.
			b.encs = append(retry.encs, b.encs...)
			b.sents = append(retry.sents, b.sents...)
			retry = batch{}
		}
		if err := r.writeBatch(b); err != nil {
			r.noteErr(err)
			if errors.Is(err, ErrTornDown) {
				if r.Logger != nil {
					r.Logger.Printf("encounter: discarding batch of %d records: %v", len(b.encs), err)
				}
				continue
			}
			// Transient failure: hold the batch here and fold it into the
			// next flush. The committer must never take r.mu: a flusher can
			// be blocked sending on commitCh with the lock held.
			retry = b
			if r.Logger != nil {
				r.Logger.Printf("encounter: flush failed, holding %d records for retry: %v", len(b.encs), err)
			}
		}
	}
	if len(retry.encs) > 0 || len(retry.sents) > 0 {
		if err := r.writeBatch(retry); err != nil {
			r.noteErr(err)
			if r.Logger != nil {
				r.Logger.Printf("encounter: dropping %d records on shutdown: %v", len(retry.encs), err)
			}
		}
	}
}

// writeBatch applies the time-window duplicate check and persists the rest.
// For each distinct (word, location) pair, encounters already stored inside
// the trailing window with the same sentence hash are dropped; the same word
// with a new sentence is kept.
func (r *Recorder) writeBatch(b batch) error {
	ctx := context.Background()
	since := r.Now().Add(-r.cfg.DedupWindow)

	type pair struct{ word, location string }
	existing := make(map[sessionKey]struct{})
	queried := make(map[pair]struct{})
	for _, e := range b.encs {
		p := pair{e.Word, e.Location}
		if _, done := queried[p]; done {
			continue
		}
		queried[p] = struct{}{}
		prior, err := r.sink.QueryEncounters(ctx, e.Word, e.Location, since)
		if err != nil {
			return fmt.Errorf("window dedup query %s: %w", e.Word, err)
		}
		for _, pe := range prior {
			existing[sessionKey{word: pe.Word, location: pe.Location, hash: pe.SentenceHash}] = struct{}{}
		}
	}

	kept := make([]store.Encounter, 0, len(b.encs))
	for _, e := range b.encs {
		if _, dup := existing[sessionKey{word: e.Word, location: e.Location, hash: e.SentenceHash}]; dup {
			continue
		}
		kept = append(kept, e)
	}

	if err := r.sink.AppendEncounters(ctx, kept); err != nil {
		return fmt.Errorf("append encounters: %w", err)
	}
	if err := r.sink.AppendSentences(ctx, b.sents); err != nil {
		return fmt.Errorf("append sentences: %w", err)
	}
	return nil
}

func (r *Recorder) noteErr(err error) {
	r.errMu.Lock()
	if r.lastErr == nil {
		r.lastErr = err
	}
	r.errMu.Unlock()
	if r.OnError != nil {
		r.OnError(err)
	}
}

// Clear drops the session-dedup state without flushing. Exposed for callers
// that discard a scan generation outright.
func (r *Recorder) Clear() {
	r.mu.Lock()
	r.seen = make(map[sessionKey]struct{})
	r.mu.Unlock()
}

// Close flushes remaining records, stops the background goroutines, and
// returns the first asynchronous error seen, if any.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRecorderClosed
	}
	r.closed = true
	if r.ticker != nil {
		r.ticker.Stop()
	}
	if len(r.buf) > 0 || len(r.sents) > 0 {
		r.flushLocked()
	}
	r.mu.Unlock()

	r.cancel()
	close(r.commitCh)
	r.wg.Wait()

	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.lastErr
}
