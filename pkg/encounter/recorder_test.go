package encounter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/soramame/yomu/pkg/store"
)

// memSink is an in-memory Sink with injectable failures.
type memSink struct {
	mu        sync.Mutex
	encs      []store.Encounter
	sents     []store.SentenceRecord
	appendErr error
	failures  int // consume appendErr this many times, then heal
}

func (m *memSink) QueryEncounters(ctx context.Context, word, location string, since time.Time) ([]store.Encounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Encounter
	for _, e := range m.encs {
		if e.Word == word && e.Location == location && !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memSink) AppendEncounters(ctx context.Context, encs []store.Encounter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil && m.failures != 0 {
		if m.failures > 0 {
			m.failures--
		}
		return m.appendErr
	}
	m.encs = append(m.encs, encs...)
	return nil
}

func (m *memSink) AppendSentences(ctx context.Context, recs []store.SentenceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sents = append(m.sents, recs...)
	return nil
}

func (m *memSink) encounters() []store.Encounter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Encounter(nil), m.encs...)
}

func (m *memSink) sentences() []store.SentenceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.SentenceRecord(nil), m.sents...)
}

func closeRecorder(t *testing.T, r *Recorder) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- r.Close() }()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timeout closing recorder")
		return nil
	}
}

func TestRecorderSessionDedup(t *testing.T) {
	sink := &memSink{}
	r := NewRecorder(sink, Config{FlushInterval: -1})
	r.SetContext("news.example", "article-1")

	for i := 0; i < 3; i++ {
		if err := r.Record("謎", "謎", "謎の文が続きます。", 800); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := closeRecorder(t, r); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := sink.encounters()
	if len(got) != 1 {
		t.Fatalf("expected exactly one encounter, got %d", len(got))
	}
	e := got[0]
	if e.Word != "謎" || e.Location != "news.example" || e.ContentID != "article-1" || e.FrequencyRank != 800 {
		t.Fatalf("unexpected encounter: %+v", e)
	}
	if e.SentenceHash == "" {
		t.Fatal("expected sentence hash set")
	}
}

func TestRecorderDifferentSentencesKept(t *testing.T) {
	sink := &memSink{}
	r := NewRecorder(sink, Config{FlushInterval: -1})
	r.SetContext("news.example", "article-1")

	r.Record("謎", "謎", "最初の謎の文です。", 0)
	r.Record("謎", "謎", "二つ目の謎の文です。", 0)
	if err := closeRecorder(t, r); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := sink.encounters(); len(got) != 2 {
		t.Fatalf("expected both sentences kept, got %d", len(got))
	}
}

func TestRecorderWindowDedup(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	sink := &memSink{}
	r := NewRecorder(sink, Config{FlushInterval: -1, DedupWindow: 4 * time.Hour})
	r.Now = func() time.Time { return now }
	r.SetContext("news.example", "article-1")

	// First session writes the encounter.
	r.Record("謎", "謎", "謎の文が続きます。", 0)
	r.FlushNow()
	waitForEncounters(t, sink, 1)

	// A new content id resets the session dedup; the same sentence seen
	// again inside the window must still be dropped by the store check.
	r.SetContext("news.example", "article-1-reload")
	r.Record("謎", "謎", "謎の文が続きます。", 0)
	// A genuinely new sentence for the same word survives.
	r.Record("謎", "謎", "別の場所に謎が現れました。", 0)
	if err := closeRecorder(t, r); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := sink.encounters()
	if len(got) != 2 {
		t.Fatalf("expected window dedup to drop the repeat, got %d encounters", len(got))
	}
}

func TestRecorderWindowExpiry(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	now := base
	var nowMu sync.Mutex
	sink := &memSink{}
	r := NewRecorder(sink, Config{FlushInterval: -1, DedupWindow: 4 * time.Hour})
	r.Now = func() time.Time {
		nowMu.Lock()
		defer nowMu.Unlock()
		return now
	}
	r.SetContext("news.example", "a")

	r.Record("謎", "謎", "謎の文が続きます。", 0)
	r.FlushNow()
	waitForEncounters(t, sink, 1)

	// Five hours later the prior record is outside the window.
	nowMu.Lock()
	now = base.Add(5 * time.Hour)
	nowMu.Unlock()
	r.SetContext("news.example", "b")
	r.Record("謎", "謎", "謎の文が続きます。", 0)
	if err := closeRecorder(t, r); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := sink.encounters(); len(got) != 2 {
		t.Fatalf("expected expired window to re-admit the sentence, got %d", len(got))
	}
}

func TestRecorderContextChangeResetsSession(t *testing.T) {
	sink := &memSink{}
	r := NewRecorder(sink, Config{FlushInterval: -1, DedupWindow: time.Nanosecond})
	r.SetContext("news.example", "article-1")
	r.Record("謎", "謎", "謎の文が続きます。", 0)

	r.SetContext("news.example", "article-2")
	r.Record("謎", "謎", "謎の文が続きます。", 0)

	if err := closeRecorder(t, r); err != nil {
		t.Fatalf("close: %v", err)
	}
	got := sink.encounters()
	if len(got) != 2 {
		t.Fatalf("expected session reset across contents, got %d", len(got))
	}
	if got[0].ContentID == got[1].ContentID {
		t.Fatal("expected distinct content ids")
	}
}

func TestRecorderBufferSizeFlush(t *testing.T) {
	sink := &memSink{}
	r := NewRecorder(sink, Config{BufferSize: 3, FlushInterval: -1})
	r.SetContext("a", "c")

	for i := 0; i < 3; i++ {
		r.Record("謎", "謎", fmt.Sprintf("%d番目の謎の文です。", i), 0)
	}
	waitForEncounters(t, sink, 3)
	if err := closeRecorder(t, r); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRecorderIntervalFlush(t *testing.T) {
	sink := &memSink{}
	r := NewRecorder(sink, Config{FlushInterval: 20 * time.Millisecond})
	r.SetContext("a", "c")
	r.Record("謎", "謎", "謎の文が続きます。", 0)

	waitForEncounters(t, sink, 1)
	if err := closeRecorder(t, r); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRecorderRetriesTransientFailure(t *testing.T) {
	sink := &memSink{appendErr: errors.New("disk full"), failures: 1}
	errCh := make(chan error, 4)
	r := NewRecorder(sink, Config{FlushInterval: -1})
	r.OnError = func(err error) { errCh <- err }
	r.SetContext("a", "c")

	r.Record("謎", "謎", "謎の文が続きます。", 0)
	r.FlushNow()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected flush error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for flush error")
	}

	// The committer holds the failed batch; Close retries it against the
	// healed sink and still surfaces the first error.
	if err := closeRecorder(t, r); err == nil {
		t.Fatal("expected Close to surface the first error")
	}
	waitForEncounters(t, sink, 1)
}

// stallSink parks every window query until released, so batches pile up
// behind a busy committer.
type stallSink struct {
	*memSink
	release chan struct{}
}

func (s *stallSink) QueryEncounters(ctx context.Context, word, location string, since time.Time) ([]store.Encounter, error) {
	<-s.release
	return s.memSink.QueryEncounters(ctx, word, location, since)
}

func TestRecorderKeepsFlushingWhileSinkFails(t *testing.T) {
	release := make(chan struct{})
	sink := &stallSink{
		memSink: &memSink{appendErr: errors.New("database is locked"), failures: 2},
		release: release,
	}
	r := NewRecorder(sink, Config{BufferSize: 1, FlushInterval: -1})
	r.SetContext("a", "c")

	// With BufferSize 1 every record is its own batch. The first batch
	// parks the committer inside the window query, the next two fill the
	// commit channel, and the fourth flush has to wait for the committer
	// to make room while records are failing.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 4; i++ {
			r.Record("謎", "謎", fmt.Sprintf("%d番目の謎の文です。", i), 0)
		}
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("records stalled while the sink was failing")
	}
	if err := closeRecorder(t, r); err == nil {
		t.Fatal("expected Close to surface the first error")
	}
	waitForEncounters(t, sink.memSink, 4)
}

func TestRecorderDiscardsOnTornDown(t *testing.T) {
	sink := &memSink{appendErr: fmt.Errorf("flush: %w", ErrTornDown), failures: -1}
	r := NewRecorder(sink, Config{FlushInterval: -1})
	r.SetContext("a", "c")

	r.Record("謎", "謎", "謎の文が続きます。", 0)
	err := closeRecorder(t, r)
	if err == nil || !errors.Is(err, ErrTornDown) {
		t.Fatalf("expected torn-down error from Close, got %v", err)
	}
	if got := sink.encounters(); len(got) != 0 {
		t.Fatalf("expected torn-down batch discarded, got %d encounters", len(got))
	}
}

func TestRecorderClosedRejectsRecords(t *testing.T) {
	r := NewRecorder(&memSink{}, Config{FlushInterval: -1})
	if err := closeRecorder(t, r); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := r.Record("謎", "謎", "文", 0); !errors.Is(err, ErrRecorderClosed) {
		t.Fatalf("expected ErrRecorderClosed, got %v", err)
	}
	if err := r.Close(); !errors.Is(err, ErrRecorderClosed) {
		t.Fatalf("expected double close rejected, got %v", err)
	}
}

func TestRecorderClearDropsSessionState(t *testing.T) {
	sink := &memSink{}
	r := NewRecorder(sink, Config{FlushInterval: -1, DedupWindow: time.Nanosecond})
	r.SetContext("a", "c")

	r.Record("謎", "謎", "謎の文が続きます。", 0)
	r.Clear()
	r.Record("謎", "謎", "謎の文が続きます。", 0)

	if err := closeRecorder(t, r); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := sink.encounters(); len(got) != 2 {
		t.Fatalf("expected cleared session to re-record, got %d", len(got))
	}
}

func waitForEncounters(t *testing.T, sink *memSink, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(sink.encounters()) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d encounters (have %d)", n, len(sink.encounters()))
}
