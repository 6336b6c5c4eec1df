// Package metrics holds the Prometheus collectors for the ledger.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena",
		Subsystem: "ledger",
		Name:      "operations_total",
		Help:      "Ledger operations by outcome.",
	}, []string{"operation", "result"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "arena",
		Subsystem: "ledger",
		Name:      "operation_duration_seconds",
		Help:      "Ledger operation latency including the store transaction.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	eloChange = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "arena",
		Name:      "elo_change",
		Help:      "Rating points transferred per decided battle.",
		Buckets:   []float64{0, 4, 8, 12, 16, 20, 24, 28, 32},
	})
)

// ObserveOperation records one ledger operation. result is "ok" or an
// error code.
func ObserveOperation(operation, result string, started time.Time) {
	operationsTotal.WithLabelValues(operation, result).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func ObserveEloChange(change uint32) {
	eloChange.Observe(float64(change))
}
