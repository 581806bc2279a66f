// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Intake metrics
	SignalsProcessed  *prometheus.CounterVec
	SignalsFiltered   *prometheus.CounterVec
	SignalsClassified *prometheus.CounterVec

	// Candidate metrics
	CandidatesCreated prometheus.Counter
	CandidatesSkipped *prometheus.CounterVec

	// Enrichment metrics
	EnrichmentLatency  prometheus.Histogram
	EnrichmentFailures prometheus.Counter

	// Launch metrics
	LaunchAttempts           prometheus.Counter
	LaunchesSucceeded        prometheus.Counter
	LaunchesFailed           prometheus.Counter
	DuplicateTriggersBlocked prometheus.Counter

	// Dispatch metrics
	AlertsSent    *prometheus.CounterVec
	AlertFailures *prometheus.CounterVec

	// Bus metrics
	BusEvents *prometheus.CounterVec

	// Audit sink metrics
	AuditWriteFailures *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "launch_radar"
	}

	return &Metrics{
		SignalsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "signals_processed_total",
			Help:      "Total number of signals processed",
		}, []string{"source"}),
		SignalsFiltered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "signals_filtered_total",
			Help:      "Total number of signals dropped before the candidate cache",
		}, []string{"reason"}),
		SignalsClassified: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "signals_classified_total",
			Help:      "Total number of classified signals by category",
		}, []string{"category"}),

		CandidatesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "candidates",
			Name:      "created_total",
			Help:      "Total number of launch candidates created",
		}),
		CandidatesSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "candidates",
			Name:      "skipped_total",
			Help:      "Total number of candidates skipped by stage",
		}, []string{"reason"}),

		EnrichmentLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "latency_seconds",
			Help:      "LLM analysis call latency",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 15},
		}),
		EnrichmentFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "failures_total",
			Help:      "Total number of failed or timed-out analysis calls",
		}),

		LaunchAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "attempts_total",
			Help:      "Total number of launch attempts reaching the executor",
		}),
		LaunchesSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "succeeded_total",
			Help:      "Total number of successful launches",
		}),
		LaunchesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "failed_total",
			Help:      "Total number of launches rejected by the executor",
		}),
		DuplicateTriggersBlocked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "duplicate_triggers_blocked_total",
			Help:      "Total number of duplicate triggers stopped by the dedup guard",
		}),

		AlertsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "sent_total",
			Help:      "Total number of alerts delivered per channel",
		}, []string{"channel"}),
		AlertFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "failures_total",
			Help:      "Total number of per-channel delivery failures",
		}, []string{"channel"}),

		BusEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "events_total",
			Help:      "Total number of events emitted on the bus",
		}, []string{"type"}),

		AuditWriteFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "write_failures_total",
			Help:      "Total number of best-effort audit writes that failed",
		}, []string{"sink"}),
	}
}

// Handler returns the HTTP handler exposing all registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
