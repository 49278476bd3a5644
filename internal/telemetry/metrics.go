// Package telemetry provides Prometheus metrics for the dashboard backend.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchTotal counts eCFR API requests by resource kind and outcome.
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecfrdash",
			Name:      "fetch_total",
			Help:      "Total number of eCFR API requests",
		},
		[]string{"kind", "status"},
	)

	// FetchDuration measures eCFR API request latency.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ecfrdash",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of eCFR API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// AggregationsTotal counts chart aggregations by chart and outcome.
	AggregationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecfrdash",
			Name:      "aggregations_total",
			Help:      "Total number of chart aggregations",
		},
		[]string{"chart", "status"},
	)

	// StaleResultsTotal counts chart results dropped because a newer selection superseded them.
	StaleResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecfrdash",
			Name:      "stale_results_total",
			Help:      "Chart results discarded by the selection staleness guard",
		},
		[]string{"chart"},
	)

	// SelectionGeneration tracks the current selection generation.
	SelectionGeneration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ecfrdash",
			Name:      "selection_generation",
			Help:      "Current dashboard selection generation",
		},
	)
)

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// RecordFetch records one eCFR API request.
func RecordFetch(kind string, ok bool, seconds float64) {
	FetchTotal.WithLabelValues(kind, status(ok)).Inc()
	FetchDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordAggregation records one chart load outcome.
func RecordAggregation(chart string, ok bool) {
	AggregationsTotal.WithLabelValues(chart, status(ok)).Inc()
}

// RecordStale records a result dropped by the staleness guard.
func RecordStale(chart string) {
	StaleResultsTotal.WithLabelValues(chart).Inc()
}

// SetGeneration publishes the current selection generation.
func SetGeneration(gen uint64) {
	SelectionGeneration.Set(float64(gen))
}
