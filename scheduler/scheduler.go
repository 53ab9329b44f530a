// Package scheduler batches dictionary-miss words for asynchronous
// confirmation by the external semantic service. Words queue up until the
// batch-size limit is reached or the flush timeout elapses; each flush
// dispatches one external call in its own goroutine so intake never blocks
// on an in-flight call.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/Dilaz/sanabotti/llm"
	"github.com/Dilaz/sanabotti/metrics"
	"github.com/Dilaz/sanabotti/reaction"
)

// Defaults applied by Config.withDefaults.
const (
	DefaultMaxBatchSize   = 2
	DefaultFlushTimeout   = 24 * time.Hour
	DefaultPollInterval   = 10 * time.Second
	DefaultConfirmTimeout = 2 * time.Minute
)

// intakeBuffer bounds the enqueue channel.
const intakeBuffer = 256

// Config controls batching behavior.
type Config struct {
	// MaxBatchSize flushes the queue as soon as it holds this many entries.
	MaxBatchSize int

	// FlushTimeout flushes a non-empty queue once this much time has passed
	// since the previous flush, so a slow trickle of words still resolves.
	FlushTimeout time.Duration

	// PollInterval is how often the timeout trigger is checked.
	PollInterval time.Duration

	// ConfirmTimeout bounds one external confirmation call.
	ConfirmTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.FlushTimeout <= 0 {
		c.FlushTimeout = DefaultFlushTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = DefaultConfirmTimeout
	}
	return c
}

// Confirmer resolves a batch of candidate words to verdicts. Words absent
// from the result map are unresolved.
type Confirmer interface {
	Confirm(ctx context.Context, words []string) (map[string]llm.Verdict, error)
}

// ValidityMarker is the game-state surface the scheduler drives.
type ValidityMarker interface {
	MarkWordValidity(messageID uint64, valid bool)
}

// entry is one queued word awaiting confirmation.
type entry struct {
	word      string
	messageID uint64
}

// Scheduler owns the confirmation queue. All queue state is confined to the
// run goroutine; only the result cache is shared with flush goroutines.
type Scheduler struct {
	cfg       Config
	confirmer Confirmer
	game      ValidityMarker
	sink      reaction.Sink
	logger    *slog.Logger

	intake    chan entry
	queue     []entry
	lastFlush time.Time
	cache     *resultCache
}

// New creates a scheduler. Start must be called before Enqueue.
func New(cfg Config, confirmer Confirmer, game ValidityMarker, sink reaction.Sink, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:       cfg.withDefaults(),
		confirmer: confirmer,
		game:      game,
		sink:      sink,
		logger:    logger,
		intake:    make(chan entry, intakeBuffer),
		cache:     newResultCache(),
	}
}

// Start runs the scheduler loop until ctx is cancelled. In-flight flushes
// are not drained on shutdown; their words stay unresolved.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

// Enqueue adds a word awaiting external confirmation. The word should
// already be capitalized for the confirmation service. Never blocks on an
// in-flight flush.
func (s *Scheduler) Enqueue(word string, messageID uint64) {
	s.intake <- entry{word: word, messageID: messageID}
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.lastFlush = time.Now()

	for {
		select {
		case <-ctx.Done():
			return

		case e := <-s.intake:
			s.queue = append(s.queue, e)
			s.logger.Debug("Queued word for confirmation",
				"word", e.word,
				"message_id", e.messageID,
				"queue_len", len(s.queue))
			if s.shouldFlush() {
				s.flush(ctx)
			}

		case <-ticker.C:
			if s.shouldFlush() {
				s.flush(ctx)
			}
		}
	}
}

// shouldFlush checks the two flush triggers: queue size and elapsed time.
func (s *Scheduler) shouldFlush() bool {
	if len(s.queue) >= s.cfg.MaxBatchSize {
		return true
	}
	return len(s.queue) > 0 && time.Since(s.lastFlush) > s.cfg.FlushTimeout
}

// flush dequeues up to MaxBatchSize entries in FIFO order and dispatches
// them concurrently.
func (s *Scheduler) flush(ctx context.Context) {
	n := min(len(s.queue), s.cfg.MaxBatchSize)
	batch := make([]entry, n)
	copy(batch, s.queue[:n])
	s.queue = s.queue[n:]
	s.lastFlush = time.Now()

	metrics.BatchesFlushed.Inc()
	metrics.BatchSize.Observe(float64(n))
	s.logger.Debug("Flushing confirmation batch", "size", n, "remaining", len(s.queue))

	go s.dispatch(ctx, batch)
}

// dispatch resolves a batch: cached words immediately, the rest through one
// external call. A failed call leaves the whole uncached subset unresolved;
// there is no retry beyond the client's own.
func (s *Scheduler) dispatch(ctx context.Context, batch []entry) {
	var misses []entry
	for _, e := range batch {
		if v, ok := s.cache.get(e.word); ok {
			metrics.CacheHits.Inc()
			s.logger.Debug("Confirmation cache hit", "word", e.word)
			s.resolve(e, v)
			continue
		}
		misses = append(misses, e)
	}

	if len(misses) == 0 {
		return
	}

	words := lo.Uniq(lo.Map(misses, func(e entry, _ int) string { return e.word }))

	cctx, cancel := context.WithTimeout(ctx, s.cfg.ConfirmTimeout)
	defer cancel()

	s.logger.Info("Confirming batch with external service", "words", len(words))
	results, err := s.confirmer.Confirm(cctx, words)
	if err != nil {
		metrics.ConfirmationFailures.Inc()
		s.logger.Error("Batch confirmation failed, leaving words unresolved",
			"words", len(words),
			"error", err)
		for _, e := range misses {
			s.unresolved(e)
		}
		return
	}

	for _, e := range misses {
		v, ok := results[e.word]
		if !ok {
			s.logger.Warn("Word missing from confirmation response", "word", e.word)
			s.unresolved(e)
			continue
		}
		s.cache.put(e.word, v)
		s.resolve(e, v)
	}
}

// resolve applies a verdict: clear the pending indicator, then mark the
// word and signal the outcome.
func (s *Scheduler) resolve(e entry, v llm.Verdict) {
	s.sink.ClearPendingIndicator(e.messageID)

	if v.IsProperNoun {
		s.logger.Info("Word confirmed as proper noun",
			"word", e.word,
			"explanation", v.Explanation)
		s.game.MarkWordValidity(e.messageID, true)
		s.sink.Indicate(e.messageID, reaction.OutcomeSuccess)
		return
	}

	s.logger.Info("Word rejected by confirmation service",
		"word", e.word,
		"explanation", v.Explanation)
	s.game.MarkWordValidity(e.messageID, false)
	s.sink.Indicate(e.messageID, reaction.OutcomeFailure)
}

// unresolved signals failure without clearing the pending indicator or
// touching game state; the word stays Pending.
func (s *Scheduler) unresolved(e entry) {
	s.sink.Indicate(e.messageID, reaction.OutcomeFailure)
}

// CachedVerdicts returns the number of cached verdicts.
func (s *Scheduler) CachedVerdicts() int {
	return s.cache.len()
}
