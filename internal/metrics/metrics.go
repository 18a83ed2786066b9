// Package metrics exposes Prometheus instruments for resolutions, stages and
// collaborator calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "domain_resolver"

var (
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Completed resolutions by outcome",
		},
		[]string{"outcome"},
	)

	ResolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Wall time of a single company resolution",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40},
		},
	)

	StageOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_outcomes_total",
			Help:      "Stage runs by stage and result (candidate, empty, failed)",
		},
		[]string{"stage", "result"},
	)

	CollaboratorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_calls_total",
			Help:      "External collaborator calls by collaborator and status",
		},
		[]string{"collaborator", "status"},
	)

	CollaboratorLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaborator_latency_seconds",
			Help:      "Latency of external collaborator calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"collaborator"},
	)

	BreakerOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_open",
			Help:      "1 when the collaborator's circuit breaker is open",
		},
		[]string{"collaborator"},
	)

	BatchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_in_flight",
			Help:      "Resolutions currently running in batch mode",
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result store lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

// Outcome labels for ResolutionsTotal.
const (
	OutcomeAccepted    = "accepted"
	OutcomeNeedsReview = "needs_review"
	OutcomeNoDomain    = "no_domain"
)

// ObserveCall records one collaborator call.
func ObserveCall(collaborator string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	CollaboratorCalls.WithLabelValues(collaborator, status).Inc()
	CollaboratorLatency.WithLabelValues(collaborator).Observe(time.Since(started).Seconds())
}

// SetBreakerOpen records whether a collaborator's breaker is open.
func SetBreakerOpen(collaborator string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	BreakerOpen.WithLabelValues(collaborator).Set(v)
}
