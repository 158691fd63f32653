// Package metrics holds the Prometheus collectors of the decision service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal counts served decisions.
	// Labels: winner (A, B)
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "decision_service",
			Name:      "decisions_total",
			Help:      "Total number of decisions served by winner",
		},
		[]string{"winner"},
	)

	// DegradedTotal counts responses replaced by their fallback.
	// Labels: operation (generate, decide)
	DegradedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "decision_service",
			Name:      "degraded_total",
			Help:      "Total number of degraded responses by operation",
		},
		[]string{"operation"},
	)

	// UnknownMindsetTotal counts requests whose mindset fell back to mixed.
	UnknownMindsetTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "decision_service",
			Name:      "unknown_mindset_total",
			Help:      "Requests with a mindset outside emotional, practical, mixed",
		},
	)

	// GenerationDuration tracks text generation latency.
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "decision_service",
			Name:      "generation_duration_seconds",
			Help:      "Duration of pros/cons generation calls in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)
)
