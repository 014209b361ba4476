package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	obsmetrics "github.com/neeprokriti/catalog-server/pkg/observability/metrics"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
	ginadapter "github.com/neeprokriti/catalog-server/pkg/server/router/gin"
)

func scrape(t *testing.T, reg *obsmetrics.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestMetrics_RecordsRequests(t *testing.T) {
	reg := obsmetrics.NewRegistry("")
	r := ginadapter.NewRouter()
	r.Use(Metrics(reg.HTTP()))
	r.GET("/products", func(c router.Context) error {
		return c.JSON(http.StatusOK, []string{})
	})
	r.GET("/fail", func(c router.Context) error {
		return errors.New("boom")
	})
	r.NotFound(func(c router.Context) error {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not_found"})
	})

	for _, path := range []string{"/products", "/products", "/fail", "/random-1", "/random-2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	body := scrape(t, reg)
	for _, want := range []string{
		`http_requests_total{method="GET",path="/products",status="200"} 2`,
		`http_requests_total{method="GET",path="/fail",status="500"} 1`,
		`http_requests_total{method="GET",path="unmatched",status="404"} 2`,
		`http_requests_in_flight 0`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in scrape output", want)
		}
	}
	if strings.Contains(body, "/random-1") {
		t.Error("unmatched paths must not become labels")
	}
}

func TestMetrics_NilCollectorIsSafe(t *testing.T) {
	r := ginadapter.NewRouter()
	r.Use(Metrics(nil))
	r.GET("/", func(c router.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
