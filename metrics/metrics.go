// Package metrics exposes Prometheus instrumentation for the validation
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Word processing results used as the "result" label of WordsProcessed.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultPending  = "pending"
	ResultSkipped  = "skipped"
	ResultTimeout  = "timeout"
)

var (
	// WordsProcessed counts inbound words by processing result.
	WordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sanabotti_words_processed_total",
		Help: "Inbound words processed, by result.",
	}, []string{"result"})

	// BatchesFlushed counts confirmation batch flushes.
	BatchesFlushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sanabotti_batches_flushed_total",
		Help: "Confirmation batches flushed to the external service.",
	})

	// BatchSize observes the number of entries per flush.
	BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sanabotti_batch_size",
		Help:    "Entries per confirmation batch flush.",
		Buckets: prometheus.LinearBuckets(1, 1, 10),
	})

	// CacheHits counts words resolved from the result cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sanabotti_confirmation_cache_hits_total",
		Help: "Words resolved from the confirmation result cache.",
	})

	// ConfirmationFailures counts failed external confirmation calls.
	ConfirmationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sanabotti_confirmation_failures_total",
		Help: "External confirmation calls that failed outright.",
	})
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
