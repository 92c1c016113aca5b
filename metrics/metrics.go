package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// DecisionsTotal counts decided submissions by outcome. Outcome labels
	// are the reject reason class (accepted, validation, category,
	// moderation, duplicate, processing_error).
	DecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civicreport",
		Subsystem: "triage",
		Name:      "decisions_total",
		Help:      "Total number of triaged report submissions, labeled by outcome.",
	}, []string{"outcome"})

	// ProcessingDurationSeconds is end-to-end time per submission.
	ProcessingDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "civicreport",
		Subsystem: "triage",
		Name:      "processing_duration_seconds",
		Help:      "End-to-end time to triage one report submission.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"outcome"})

	// DuplicateCandidatesScanned is the accepted-record pool size examined
	// per comprehensive duplicate check.
	DuplicateCandidatesScanned = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "civicreport",
		Subsystem: "triage",
		Name:      "duplicate_candidates_scanned",
		Help:      "Number of accepted records scanned per duplicate check.",
		Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
	})

	// StoreAppendErrorsTotal counts failed decision appends. These are the
	// one error class that propagates to the caller.
	StoreAppendErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "civicreport",
		Subsystem: "triage",
		Name:      "store_append_errors_total",
		Help:      "Total number of failed decision-record appends.",
	})

	// ModerationSignalAbsentTotal counts external moderation calls that
	// timed out or failed and degraded to the local keyword check only.
	ModerationSignalAbsentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "civicreport",
		Subsystem: "triage",
		Name:      "moderation_signal_absent_total",
		Help:      "Total number of external moderation calls that degraded to signal-absent.",
	})
)

// Register registers triage metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			DecisionsTotal,
			ProcessingDurationSeconds,
			DuplicateCandidatesScanned,
			StoreAppendErrorsTotal,
			ModerationSignalAbsentTotal,
		)
	})
}
