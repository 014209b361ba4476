package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics tracks database operation latency and result sizes.
// A nil *StoreMetrics records nothing.
type StoreMetrics struct {
	duration *prometheus.HistogramVec
	results  *prometheus.HistogramVec
}

func newStoreMetrics(namespace string) *StoreMetrics {
	return &StoreMetrics{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Database operation duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"operation", "collection", "outcome"},
		),
		results: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_results",
				Help:      "Number of documents returned per database operation",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
			},
			[]string{"operation", "collection"},
		),
	}
}

func (m *StoreMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.duration, m.results}
}

// ObserveOperation records the latency of one operation, labelled "error" when err is non-nil.
func (m *StoreMetrics) ObserveOperation(operation, collection string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.duration.WithLabelValues(operation, collection, outcome).Observe(duration.Seconds())
}

// ObserveResults records how many documents an operation produced.
func (m *StoreMetrics) ObserveResults(operation, collection string, n int) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(operation, collection).Observe(float64(n))
}
