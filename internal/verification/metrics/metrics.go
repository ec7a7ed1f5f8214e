package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Merchant submissions by step number
	Submissions *prometheus.CounterVec

	// Review outcomes by decision
	ReviewOutcome *prometheus.CounterVec

	// Fully completed KYC records
	Completions prometheus.Counter

	// Record cache effectiveness
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Store read-modify-write latency
	UpdateLatency prometheus.Histogram
}

// New creates a Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kycgate_step_submissions_total",
			Help: "Total merchant step submissions by step number",
		}, []string{"step"}),

		ReviewOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kycgate_review_outcomes_total",
			Help: "Total admin review outcomes by decision",
		}, []string{"decision"}),

		Completions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kycgate_kyc_completions_total",
			Help: "Total merchants whose KYC reached fully verified",
		}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kycgate_verification_cache_hits_total",
			Help: "Verification record cache hits",
		}),

		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kycgate_verification_cache_misses_total",
			Help: "Verification record cache misses",
		}),

		UpdateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kycgate_verification_update_duration_seconds",
			Help:    "Duration of verification record read-modify-write operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementSubmission records a merchant submission for a step.
func (m *Metrics) IncrementSubmission(step string) {
	if m != nil {
		m.Submissions.WithLabelValues(step).Inc()
	}
}

// IncrementOutcome records an admin review outcome.
func (m *Metrics) IncrementOutcome(decision string) {
	if m != nil {
		m.ReviewOutcome.WithLabelValues(decision).Inc()
	}
}

// IncrementCompletions records a merchant reaching full KYC completion.
func (m *Metrics) IncrementCompletions() {
	if m != nil {
		m.Completions.Inc()
	}
}

// RecordCacheHit counts a record served from cache.
func (m *Metrics) RecordCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

// RecordCacheMiss counts a record loaded from the backing store.
func (m *Metrics) RecordCacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

// ObserveUpdateLatency records the duration of a store update.
func (m *Metrics) ObserveUpdateLatency(d time.Duration) {
	if m != nil {
		m.UpdateLatency.Observe(d.Seconds())
	}
}
