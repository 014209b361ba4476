// Package contract holds the behavior every router adapter must share.
package contract

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/neeprokriti/catalog-server/pkg/server/router"
)

// TestRouterContract runs the shared router test-suite against createRouter.
func TestRouterContract(t *testing.T, createRouter func() router.Router) {
	t.Helper()

	t.Run("get", func(t *testing.T) {
		r := createRouter()
		r.GET("/products", func(c router.Context) error {
			return c.String(http.StatusOK, "list")
		})

		rec := performRequest(r, http.MethodGet, "/products")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if rec.Body.String() != "list" {
			t.Fatalf("expected body %q, got %q", "list", rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Fatalf("expected text/plain content type, got %q", ct)
		}
	})

	t.Run("group", func(t *testing.T) {
		r := createRouter()
		api := r.Group("/api")
		api.GET("/openapi.yaml", func(c router.Context) error {
			return c.String(http.StatusOK, "spec")
		})

		rec := performRequest(r, http.MethodGet, "/api/openapi.yaml")
		if rec.Code != http.StatusOK || rec.Body.String() != "spec" {
			t.Fatalf("unexpected grouped response: %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("middleware_order", func(t *testing.T) {
		r := createRouter()
		var order []string
		mark := func(name string) router.MiddlewareFunc {
			return func(next router.HandlerFunc) router.HandlerFunc {
				return func(c router.Context) error {
					order = append(order, name)
					return next(c)
				}
			}
		}

		r.Use(mark("global"))
		g := r.Group("/g", mark("group"))
		g.GET("/x", func(c router.Context) error {
			order = append(order, "handler")
			return c.String(http.StatusOK, "ok")
		}, mark("route"))

		performRequest(r, http.MethodGet, "/g/x")
		got := strings.Join(order, ",")
		if got != "global,group,route,handler" {
			t.Fatalf("unexpected middleware order: %s", got)
		}
	})

	t.Run("late_global_middleware", func(t *testing.T) {
		r := createRouter()
		r.GET("/x", func(c router.Context) error {
			return c.String(http.StatusOK, "ok")
		})
		r.Use(func(next router.HandlerFunc) router.HandlerFunc {
			return func(c router.Context) error {
				c.Response().Header().Set("X-Late", "1")
				return next(c)
			}
		})

		rec := performRequest(r, http.MethodGet, "/x")
		if rec.Header().Get("X-Late") != "1" {
			t.Fatal("expected middleware registered after the route to run")
		}
	})

	t.Run("query_params", func(t *testing.T) {
		r := createRouter()
		r.GET("/products", func(c router.Context) error {
			all := c.QueryValues()
			return c.String(http.StatusOK, c.Query("sort")+"|"+all.Get("page")+"|"+c.Query("missing"))
		})

		rec := performRequest(r, http.MethodGet, "/products?sort=low&page=2")
		if rec.Body.String() != "low|2|" {
			t.Fatalf("unexpected query parsing: %q", rec.Body.String())
		}
	})

	t.Run("json_response", func(t *testing.T) {
		r := createRouter()
		r.GET("/productCount", func(c router.Context) error {
			return c.JSON(http.StatusOK, map[string]int64{"count": 3})
		})

		rec := performRequest(r, http.MethodGet, "/productCount")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Fatalf("expected application/json, got %q", ct)
		}
		var body map[string]int64
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if body["count"] != 3 {
			t.Fatalf("expected count 3, got %v", body)
		}
	})

	t.Run("error_handling", func(t *testing.T) {
		r := createRouter()
		r.GET("/fail", func(c router.Context) error {
			return errors.New("boom")
		})
		r.GET("/written", func(c router.Context) error {
			_ = c.String(http.StatusTeapot, "short")
			return errors.New("after write")
		})

		if rec := performRequest(r, http.MethodGet, "/fail"); rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500 for unwritten error, got %d", rec.Code)
		}
		if rec := performRequest(r, http.MethodGet, "/written"); rec.Code != http.StatusTeapot {
			t.Fatalf("expected written status to stick, got %d", rec.Code)
		}
	})

	t.Run("response_writer", func(t *testing.T) {
		r := createRouter()
		var before, after bool
		var status int
		r.GET("/w", func(c router.Context) error {
			before = c.Response().Written()
			c.Response().WriteHeader(http.StatusAccepted)
			c.Response().WriteHeader(http.StatusBadGateway)
			after = c.Response().Written()
			status = c.Response().Status()
			return nil
		})

		rec := performRequest(r, http.MethodGet, "/w")
		if before || !after {
			t.Fatalf("unexpected written flags before=%v after=%v", before, after)
		}
		if status != http.StatusAccepted || rec.Code != http.StatusAccepted {
			t.Fatalf("expected first status to win, got %d/%d", status, rec.Code)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		r := createRouter()
		r.Use(func(next router.HandlerFunc) router.HandlerFunc {
			return func(c router.Context) error {
				c.Response().Header().Set("X-Global", "1")
				return next(c)
			}
		})
		r.GET("/products", func(c router.Context) error {
			return c.String(http.StatusOK, "ok")
		})
		r.NotFound(func(c router.Context) error {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "not_found"})
		})

		rec := performRequest(r, http.MethodGet, "/nope")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if rec.Header().Get("X-Global") != "1" {
			t.Fatal("expected global middleware to run for unmatched routes")
		}
		if !strings.Contains(rec.Body.String(), "not_found") {
			t.Fatalf("expected custom not found body, got %q", rec.Body.String())
		}
	})

	t.Run("preflight", func(t *testing.T) {
		r := createRouter()
		r.Use(func(next router.HandlerFunc) router.HandlerFunc {
			return func(c router.Context) error {
				c.Response().Header().Set("Access-Control-Allow-Origin", "*")
				return next(c)
			}
		})
		r.GET("/categories", func(c router.Context) error {
			return c.String(http.StatusOK, "ok")
		})

		rec := performRequest(r, http.MethodOptions, "/categories")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204 for OPTIONS, got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Fatal("expected middleware to run on preflight")
		}
	})
}

func performRequest(h http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
