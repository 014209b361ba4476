// Package metrics provides Prometheus metrics for the HTTP surface and the catalog store.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry manages Prometheus metrics registration and exposure.
// It owns the HTTP and store metric families plus Go runtime and process collectors.
type Registry struct {
	registry *prometheus.Registry
	http     *HTTPMetrics
	store    *StoreMetrics
}

// NewRegistry creates a registry whose metric names are prefixed with namespace.
// An empty namespace produces unprefixed names.
func NewRegistry(namespace string) *Registry {
	reg := prometheus.NewRegistry()

	httpMetrics := newHTTPMetrics(namespace)
	storeMetrics := newStoreMetrics(namespace)
	reg.MustRegister(httpMetrics.collectors()...)
	reg.MustRegister(storeMetrics.collectors()...)

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Registry{
		registry: reg,
		http:     httpMetrics,
		store:    storeMetrics,
	}
}

// HTTP returns the request metrics recorded by the HTTP middleware.
func (r *Registry) HTTP() *HTTPMetrics {
	if r == nil {
		return nil
	}
	return r.http
}

// Store returns the metrics recorded around database operations.
func (r *Registry) Store() *StoreMetrics {
	if r == nil {
		return nil
	}
	return r.store
}

// Register registers a custom Prometheus collector.
func (r *Registry) Register(collector prometheus.Collector) error {
	return r.registry.Register(collector)
}

// MustRegister registers collectors and panics on error.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// Handler returns an HTTP handler that exposes metrics in Prometheus format.
// It is mounted on the management server at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Gatherer returns the underlying prometheus.Gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
