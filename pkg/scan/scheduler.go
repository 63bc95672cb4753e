// Package scan walks a document's text nodes chunk by chunk, driving the
// matcher, sentence grouper and stats aggregator under a cooperative time
// budget with cancellation, hard timeout, and partial-result reporting.
package scan

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/soramame/yomu/pkg/matcher"
	"github.com/soramame/yomu/pkg/sentence"
	"github.com/soramame/yomu/pkg/stats"
	"github.com/soramame/yomu/pkg/vocab"
)

// Matcher abstracts word matching so the scheduler accepts both the
// rule-table matcher and the kagome-backed one.
type Matcher interface {
	Match(text string) []matcher.MatchedWord
}

// VisibilityOracle answers whether a node currently intersects the viewport
// and notifies the scheduler when a previously-invisible node becomes
// visible. Implemented by the caller.
type VisibilityOracle interface {
	Visible(n *Node) bool
	// Subscribe registers fn for visibility promotions and returns an
	// unsubscribe function. fn must not block.
	Subscribe(fn func(n *Node)) (cancel func())
}

// Progress is the snapshot reported after every chunk and as the final
// result of a scan.
type Progress struct {
	Stats        stats.Summary
	ScannedNodes int
	TotalNodes   int
	IsComplete   bool
}

// Config tunes the scheduler. Zero values pick the defaults.
type Config struct {
	// ChunkSize is the node count per cooperative chunk (default 30).
	ChunkSize int
	// Timeout forcibly finalizes a scan that runs too long (default 30s).
	// A timed-out scan reports IsComplete even with nodes unscanned.
	Timeout time.Duration
	// SliceBudget bounds one uninterrupted processing slice in lazy mode
	// (default 15ms).
	SliceBudget time.Duration
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 30
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.SliceBudget <= 0 {
		c.SliceBudget = 15 * time.Millisecond
	}
	return c
}

// Scheduler runs scans over documents. Only one scan is active at a time;
// starting a new one supersedes (cancels) the previous.
type Scheduler struct {
	cfg     Config
	matcher Matcher
	vocab   *vocab.Snapshot
	ranks   map[string]int

	// OnTokens receives each node's classified tokens (renderer boundary).
	OnTokens func(n *Node, toks []matcher.ClassifiedToken)
	// OnSentences receives each node's sentence groups (encounter boundary).
	OnSentences func(n *Node, groups []sentence.Group)
	// OnProgress fires after every chunk and once with the final result.
	OnProgress func(p Progress)
	// Logger receives recovered chunk panics and skip notices. nil is silent.
	Logger *log.Logger

	mu      sync.Mutex
	current *Scan
	gen     uint64
}

// New builds a scheduler classifying against the given vocabulary snapshot.
// The snapshot is treated as immutable; when the vocabulary changes the
// caller starts a new scheduler (or a new scan via Supersede) with a fresh
// snapshot, discarding prior partial state.
func New(m Matcher, v *vocab.Snapshot, ranks map[string]int, cfg Config) *Scheduler {
	return &Scheduler{cfg: cfg.withDefaults(), matcher: m, vocab: v, ranks: ranks}
}

// Supersede replaces the vocabulary snapshot and cancels any active scan.
// The next Start folds into a fresh generation; nothing is merged.
func (s *Scheduler) Supersede(v *vocab.Snapshot, ranks map[string]int) {
	s.mu.Lock()
	if s.current != nil {
		s.current.Cancel()
		s.current = nil
	}
	s.vocab = v
	s.ranks = ranks
	s.mu.Unlock()
}

// Scan is a handle to one scan generation. Its RunningStats are owned by the
// scan goroutine; observers only ever see copied snapshots.
type Scan struct {
	sched *Scheduler
	gen   uint64

	running   *stats.Running
	processed map[*Node]struct{}
	total     int
	scanned   int

	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result Progress
}

// Start begins a full, non-lazy scan: every node, fixed-size chunks, a
// progress report after each chunk. Any scan already running is canceled
// first.
func (s *Scheduler) Start(ctx context.Context, doc *Document) *Scan {
	sc, ctx := s.begin(ctx, doc)
	go sc.runFull(ctx, doc.TextNodes())
	return sc
}

// StartLazy begins a viewport-driven scan: currently-visible nodes are
// processed first under the slice budget, the rest wait for the oracle to
// promote them. The hard timeout still bounds the whole scan.
func (s *Scheduler) StartLazy(ctx context.Context, doc *Document, oracle VisibilityOracle) *Scan {
	sc, ctx := s.begin(ctx, doc)
	go sc.runLazy(ctx, doc.TextNodes(), oracle)
	return sc
}

func (s *Scheduler) begin(ctx context.Context, doc *Document) (*Scan, context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.current != nil {
		s.current.Cancel()
	}
	s.gen++
	sc := &Scan{
		sched:     s,
		gen:       s.gen,
		running:   stats.New(),
		processed: make(map[*Node]struct{}),
		total:     len(doc.TextNodes()),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	s.current = sc
	s.mu.Unlock()
	return sc, ctx
}

// Cancel stops the scan at the next chunk boundary. The in-flight chunk
// completes; the scan resolves with partial, incomplete results.
func (sc *Scan) Cancel() { sc.cancel() }

// Done is closed when the scan has finalized.
func (sc *Scan) Done() <-chan struct{} { return sc.done }

// Result returns the latest progress snapshot; after Done it is the final
// result.
func (sc *Scan) Result() Progress {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.result
}

func (sc *Scan) runFull(ctx context.Context, nodes []*Node) {
	deadline := time.Now().Add(sc.sched.cfg.Timeout)
	chunk := sc.sched.cfg.ChunkSize

	timedOut := false
	i := 0
	for i < len(nodes) {
		if ctx.Err() != nil {
			break
		}
		if time.Now().After(deadline) {
			timedOut = true
			break
		}
		end := i + chunk
		if end > len(nodes) {
			end = len(nodes)
		}
		sc.processChunk(nodes[i:end])
		i = end
		sc.report(i == len(nodes))
	}

	complete := i == len(nodes) || timedOut
	sc.finish(complete)
}

func (sc *Scan) runLazy(ctx context.Context, nodes []*Node, oracle VisibilityOracle) {
	deadline := time.NewTimer(sc.sched.cfg.Timeout)
	defer deadline.Stop()

	var visible []*Node
	for _, n := range nodes {
		if oracle.Visible(n) {
			visible = append(visible, n)
		}
	}

	// Each distinct node is enqueued at most once, so the buffer holds every
	// possible promotion and the non-blocking send never drops one. The
	// enqueued set has its own lock: the callback runs on the oracle's
	// goroutine.
	var enqMu sync.Mutex
	enqueued := make(map[*Node]struct{}, len(nodes))
	for _, n := range visible {
		enqueued[n] = struct{}{}
	}
	pending := make(chan *Node, len(nodes))
	unsub := oracle.Subscribe(func(n *Node) {
		enqMu.Lock()
		_, dup := enqueued[n]
		if !dup {
			enqueued[n] = struct{}{}
		}
		enqMu.Unlock()
		if dup {
			return
		}
		select {
		case pending <- n:
		default:
		}
	})
	defer unsub()

	timedOut := false
	canceled := false

	sc.processBudgeted(ctx, visible)

	for sc.scanned < sc.total && !timedOut && !canceled {
		select {
		case <-ctx.Done():
			canceled = true
		case <-deadline.C:
			timedOut = true
		case n := <-pending:
			batch := []*Node{n}
		drain:
			for len(batch) < sc.sched.cfg.ChunkSize {
				select {
				case more := <-pending:
					batch = append(batch, more)
				default:
					break drain
				}
			}
			sc.processChunk(batch)
			sc.report(sc.scanned == sc.total)
		}
	}

	sc.finish(sc.scanned == sc.total || timedOut)
}

// processBudgeted runs nodes in slices bounded by the slice budget, emitting
// a progress report at each yield point and honoring cancellation between
// slices.
func (sc *Scan) processBudgeted(ctx context.Context, nodes []*Node) {
	chunk := sc.sched.cfg.ChunkSize
	i := 0
	for i < len(nodes) {
		if ctx.Err() != nil {
			return
		}
		sliceEnd := time.Now().Add(sc.sched.cfg.SliceBudget)
		for i < len(nodes) && time.Now().Before(sliceEnd) {
			end := i + chunk
			if end > len(nodes) {
				end = len(nodes)
			}
			sc.processChunk(nodes[i:end])
			i = end
		}
		sc.report(sc.scanned == sc.total)
	}
}

// processChunk analyzes each unprocessed node of the chunk. A panic anywhere
// in the chunk is recovered, logged, and the rest of the chunk is skipped;
// its nodes still count as processed so the scan can terminate.
func (sc *Scan) processChunk(nodes []*Node) {
	defer func() {
		if p := recover(); p != nil {
			if sc.sched.Logger != nil {
				sc.sched.Logger.Printf("scan: recovered panic, skipping chunk of %d nodes: %v", len(nodes), p)
			}
			for _, n := range nodes {
				if _, done := sc.processed[n]; !done {
					sc.processed[n] = struct{}{}
					sc.scanned++
				}
			}
		}
	}()

	for _, n := range nodes {
		if _, done := sc.processed[n]; done {
			continue
		}
		sc.processNode(n)
		sc.processed[n] = struct{}{}
		sc.scanned++
	}
}

func (sc *Scan) processNode(n *Node) {
	s := sc.sched
	matches := s.matcher.Match(n.Text)
	toks := matcher.Classify(matches, s.vocab, s.ranks)
	groups := sentence.GroupTokens(n.Text, toks)

	sc.running.Fold(toks)
	for _, g := range groups {
		sc.running.ObserveSentence(g.Text)
	}

	if s.OnTokens != nil {
		s.OnTokens(n, toks)
	}
	if s.OnSentences != nil {
		s.OnSentences(n, groups)
	}
}

func (sc *Scan) report(complete bool) {
	p := Progress{
		Stats:        sc.running.Snapshot(),
		ScannedNodes: sc.scanned,
		TotalNodes:   sc.total,
		IsComplete:   complete,
	}
	sc.mu.Lock()
	sc.result = p
	sc.mu.Unlock()
	if sc.sched.OnProgress != nil {
		sc.sched.OnProgress(p)
	}
}

func (sc *Scan) finish(complete bool) {
	// Avoid a duplicate report when the last chunk already carried the
	// final state.
	sc.mu.Lock()
	same := sc.result.ScannedNodes == sc.scanned && sc.result.IsComplete == complete
	sc.mu.Unlock()
	if !same {
		sc.report(complete)
	}
	sc.cancel()
	close(sc.done)
}
