package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dilaz/sanabotti/llm"
	"github.com/Dilaz/sanabotti/reaction"
)

type fakeConfirmer struct {
	mu      sync.Mutex
	calls   [][]string
	results map[string]llm.Verdict
	err     error
}

func (f *fakeConfirmer) Confirm(_ context.Context, words []string) (map[string]llm.Verdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, words)
	if f.err != nil {
		return nil, f.err
	}

	results := make(map[string]llm.Verdict)
	for _, w := range words {
		if v, ok := f.results[w]; ok {
			results[w] = v
		}
	}
	return results, nil
}

func (f *fakeConfirmer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeConfirmer) call(i int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

type mark struct {
	messageID uint64
	valid     bool
}

type fakeMarker struct {
	mu    sync.Mutex
	marks []mark
}

func (f *fakeMarker) MarkWordValidity(messageID uint64, valid bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marks = append(f.marks, mark{messageID: messageID, valid: valid})
}

func (f *fakeMarker) all() []mark {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mark(nil), f.marks...)
}

type indication struct {
	messageID uint64
	outcome   reaction.Outcome
}

type fakeSink struct {
	mu          sync.Mutex
	indications []indication
	cleared     []uint64
}

func (f *fakeSink) Indicate(messageID uint64, outcome reaction.Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indications = append(f.indications, indication{messageID: messageID, outcome: outcome})
}

func (f *fakeSink) ClearPendingIndicator(messageID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, messageID)
}

func (f *fakeSink) allIndications() []indication {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]indication(nil), f.indications...)
}

func (f *fakeSink) allCleared() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.cleared...)
}

func startScheduler(t *testing.T, cfg Config, confirmer Confirmer, marker ValidityMarker, sink reaction.Sink) *Scheduler {
	t.Helper()
	s := New(cfg, confirmer, marker, sink, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	s.Start(ctx)
	return s
}

func TestFlushOnBatchSize(t *testing.T) {
	confirmer := &fakeConfirmer{results: map[string]llm.Verdict{
		"Helsinki": {Word: "Helsinki", IsProperNoun: true, Explanation: "Suomen pääkaupunki."},
		"Bababpap": {Word: "Bababpap", IsProperNoun: false, Explanation: "Ei tunnistettu sana."},
	}}
	marker := &fakeMarker{}
	sink := &fakeSink{}

	// Flush timeout effectively unbounded: size is the only trigger.
	s := startScheduler(t, Config{
		MaxBatchSize: 2,
		FlushTimeout: time.Hour,
		PollInterval: time.Hour,
	}, confirmer, marker, sink)

	s.Enqueue("Helsinki", 100)
	s.Enqueue("Bababpap", 101)

	require.Eventually(t, func() bool {
		return len(marker.all()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, confirmer.callCount())
	assert.Equal(t, []string{"Helsinki", "Bababpap"}, confirmer.call(0)) // FIFO

	assert.ElementsMatch(t, []mark{
		{messageID: 100, valid: true},
		{messageID: 101, valid: false},
	}, marker.all())

	assert.ElementsMatch(t, []uint64{100, 101}, sink.allCleared())
	assert.ElementsMatch(t, []indication{
		{messageID: 100, outcome: reaction.OutcomeSuccess},
		{messageID: 101, outcome: reaction.OutcomeFailure},
	}, sink.allIndications())
}

func TestNoFlushBelowBatchSize(t *testing.T) {
	confirmer := &fakeConfirmer{}
	s := startScheduler(t, Config{
		MaxBatchSize: 2,
		FlushTimeout: time.Hour,
		PollInterval: time.Hour,
	}, confirmer, &fakeMarker{}, &fakeSink{})

	s.Enqueue("Helsinki", 100)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, confirmer.callCount())
}

func TestFlushOnTimeout(t *testing.T) {
	confirmer := &fakeConfirmer{results: map[string]llm.Verdict{
		"Helsinki": {Word: "Helsinki", IsProperNoun: true},
	}}
	marker := &fakeMarker{}
	sink := &fakeSink{}

	s := startScheduler(t, Config{
		MaxBatchSize: 10,
		FlushTimeout: 50 * time.Millisecond,
		PollInterval: 20 * time.Millisecond,
	}, confirmer, marker, sink)

	s.Enqueue("Helsinki", 100)

	require.Eventually(t, func() bool {
		return len(marker.all()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []mark{{messageID: 100, valid: true}}, marker.all())
}

func TestCachedWordNotResent(t *testing.T) {
	confirmer := &fakeConfirmer{results: map[string]llm.Verdict{
		"Helsinki": {Word: "Helsinki", IsProperNoun: true},
		"Turku":    {Word: "Turku", IsProperNoun: true},
	}}
	marker := &fakeMarker{}
	sink := &fakeSink{}

	s := startScheduler(t, Config{
		MaxBatchSize: 1,
		FlushTimeout: time.Hour,
		PollInterval: time.Hour,
	}, confirmer, marker, sink)

	s.Enqueue("Helsinki", 100)
	require.Eventually(t, func() bool { return s.CachedVerdicts() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Same word again: resolved from cache, no second call for it.
	s.Enqueue("Helsinki", 200)
	require.Eventually(t, func() bool { return len(marker.all()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, confirmer.callCount())

	// A new word still goes out.
	s.Enqueue("Turku", 300)
	require.Eventually(t, func() bool { return confirmer.callCount() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"Turku"}, confirmer.call(1))
}

func TestTransportFailureLeavesWordsUnresolved(t *testing.T) {
	confirmer := &fakeConfirmer{err: errors.New("service unavailable")}
	marker := &fakeMarker{}
	sink := &fakeSink{}

	s := startScheduler(t, Config{
		MaxBatchSize: 2,
		FlushTimeout: time.Hour,
		PollInterval: time.Hour,
	}, confirmer, marker, sink)

	s.Enqueue("Helsinki", 100)
	s.Enqueue("Turku", 101)

	require.Eventually(t, func() bool {
		return len(sink.allIndications()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	// Failure indicated, but nothing marked, cleared, or cached.
	for _, ind := range sink.allIndications() {
		assert.Equal(t, reaction.OutcomeFailure, ind.outcome)
	}
	assert.Empty(t, marker.all())
	assert.Empty(t, sink.allCleared())
	assert.Equal(t, 0, s.CachedVerdicts())
}

func TestWordMissingFromResponseUnresolved(t *testing.T) {
	confirmer := &fakeConfirmer{results: map[string]llm.Verdict{
		"Helsinki": {Word: "Helsinki", IsProperNoun: true},
	}}
	marker := &fakeMarker{}
	sink := &fakeSink{}

	s := startScheduler(t, Config{
		MaxBatchSize: 2,
		FlushTimeout: time.Hour,
		PollInterval: time.Hour,
	}, confirmer, marker, sink)

	s.Enqueue("Helsinki", 100)
	s.Enqueue("Mysteeri", 101)

	require.Eventually(t, func() bool {
		return len(sink.allIndications()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []mark{{messageID: 100, valid: true}}, marker.all())
	assert.Equal(t, []uint64{100}, sink.allCleared())
}

func TestDuplicateWordsSentOnce(t *testing.T) {
	confirmer := &fakeConfirmer{results: map[string]llm.Verdict{
		"Helsinki": {Word: "Helsinki", IsProperNoun: true},
	}}
	marker := &fakeMarker{}
	sink := &fakeSink{}

	s := startScheduler(t, Config{
		MaxBatchSize: 2,
		FlushTimeout: time.Hour,
		PollInterval: time.Hour,
	}, confirmer, marker, sink)

	s.Enqueue("Helsinki", 100)
	s.Enqueue("Helsinki", 101)

	require.Eventually(t, func() bool { return len(marker.all()) == 2 }, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, 1, confirmer.callCount())
	assert.Equal(t, []string{"Helsinki"}, confirmer.call(0)) // distinct words only
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultMaxBatchSize, cfg.MaxBatchSize)
	assert.Equal(t, DefaultFlushTimeout, cfg.FlushTimeout)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultConfirmTimeout, cfg.ConfirmTimeout)
}
