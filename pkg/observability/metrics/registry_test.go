package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	return rec.Body.String()
}

func TestRegistry_Handler(t *testing.T) {
	registry := NewRegistry("")
	registry.HTTP().Record(http.MethodGet, "/products", http.StatusOK, 10*time.Millisecond)

	body := scrape(t, registry)
	for _, metric := range []string{
		"http_request_duration_seconds",
		"http_requests_total",
		"http_requests_in_flight",
		"go_goroutines",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("expected metric %s to be exposed", metric)
		}
	}
}

func TestRegistry_Namespace(t *testing.T) {
	registry := NewRegistry("neeprokriti")
	registry.HTTP().Record(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	registry.Store().ObserveOperation("find", "products", nil, time.Millisecond)

	body := scrape(t, registry)
	if !strings.Contains(body, "neeprokriti_http_requests_total") {
		t.Error("expected namespaced HTTP counter")
	}
	if !strings.Contains(body, "neeprokriti_store_operation_duration_seconds") {
		t.Error("expected namespaced store histogram")
	}
}

func TestHTTPMetrics_Record(t *testing.T) {
	registry := NewRegistry("")
	m := registry.HTTP()

	m.Record(http.MethodGet, "/products", http.StatusOK, 5*time.Millisecond)
	m.Record(http.MethodGet, "/products", http.StatusOK, 7*time.Millisecond)
	m.Record(http.MethodGet, "/products", http.StatusInternalServerError, time.Millisecond)

	if got := testutil.ToFloat64(m.total.WithLabelValues(http.MethodGet, "/products", "200")); got != 2 {
		t.Errorf("200 counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.total.WithLabelValues(http.MethodGet, "/products", "500")); got != 1 {
		t.Errorf("500 counter = %v, want 1", got)
	}
}

func TestHTTPMetrics_InFlight(t *testing.T) {
	m := NewRegistry("").HTTP()
	m.IncInFlight()
	m.IncInFlight()
	m.DecInFlight()
	if got := testutil.ToFloat64(m.inFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
}

func TestStoreMetrics_Outcome(t *testing.T) {
	m := NewRegistry("").Store()
	m.ObserveOperation("count", "products", nil, time.Millisecond)
	m.ObserveOperation("count", "products", errors.New("boom"), time.Millisecond)
	m.ObserveResults("find", "products", 12)

	if n := testutil.CollectAndCount(m.duration); n != 2 {
		t.Errorf("expected 2 duration series (success, error), got %d", n)
	}
	if n := testutil.CollectAndCount(m.results); n != 1 {
		t.Errorf("expected 1 results series, got %d", n)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var r *Registry
	r.HTTP().Record(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	r.HTTP().IncInFlight()
	r.HTTP().DecInFlight()
	r.Store().ObserveOperation("find", "products", nil, time.Millisecond)
	r.Store().ObserveResults("find", "products", 1)
}

func TestRegistry_CustomCollector(t *testing.T) {
	registry := NewRegistry("")
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_custom_total", Help: "custom"})
	if err := registry.Register(counter); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := registry.Register(counter); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	counter.Inc()
	if !strings.Contains(scrape(t, registry), "catalog_custom_total") {
		t.Error("custom collector not exposed")
	}
}
