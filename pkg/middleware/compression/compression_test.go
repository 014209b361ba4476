package compression

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/neeprokriti/catalog-server/pkg/middleware/recovery"
	"github.com/neeprokriti/catalog-server/pkg/observability/logger"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
	ginadapter "github.com/neeprokriti/catalog-server/pkg/server/router/gin"
	gorillaadapter "github.com/neeprokriti/catalog-server/pkg/server/router/gorilla"
)

func largeCatalog() []map[string]string {
	products := make([]map[string]string, 0, 50)
	for i := 0; i < 50; i++ {
		products = append(products, map[string]string{"name": "Tulsi Plant", "collection": "indoor"})
	}
	return products
}

func serve(r router.Router, path, acceptEncoding string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func newCatalogRouter(cfg Config) router.Router {
	r := ginadapter.NewRouter()
	r.Use(Middleware(cfg))
	r.GET("/products", func(c router.Context) error {
		return c.JSON(http.StatusOK, largeCatalog())
	})
	r.GET("/", func(c router.Context) error {
		return c.String(http.StatusOK, "NeeProkriti server is running")
	})
	return r
}

func decodeProducts(t *testing.T, body []byte) []map[string]string {
	t.Helper()
	var products []map[string]string
	if err := json.Unmarshal(body, &products); err != nil {
		t.Fatalf("decode json payload: %v", err)
	}
	return products
}

func TestMiddleware_UsesBrotliWhenAccepted(t *testing.T) {
	rec := serve(newCatalogRouter(DefaultConfig()), "/products", "br, gzip")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("expected br encoding, got %q", rec.Header().Get("Content-Encoding"))
	}
	if rec.Header().Get("Vary") != "Accept-Encoding" {
		t.Errorf("expected Vary: Accept-Encoding, got %q", rec.Header().Get("Vary"))
	}

	body, err := io.ReadAll(brotli.NewReader(bytes.NewReader(rec.Body.Bytes())))
	if err != nil {
		t.Fatalf("decode br body: %v", err)
	}
	if got := decodeProducts(t, body); len(got) != 50 {
		t.Fatalf("expected 50 products, got %d", len(got))
	}
}

func TestMiddleware_FallsBackToGzip(t *testing.T) {
	r := gorillaadapter.NewRouter()
	r.Use(Middleware(DefaultConfig()))
	r.GET("/products", func(c router.Context) error {
		return c.JSON(http.StatusOK, largeCatalog())
	})

	rec := serve(r, "/products", "gzip")
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", rec.Header().Get("Content-Encoding"))
	}

	gz, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("create gzip reader: %v", err)
	}
	defer gz.Close()
	body, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("decode gzip body: %v", err)
	}
	if got := decodeProducts(t, body); len(got) != 50 {
		t.Fatalf("expected 50 products, got %d", len(got))
	}
}

func TestMiddleware_SmallBodiesStayPlain(t *testing.T) {
	rec := serve(newCatalogRouter(DefaultConfig()), "/", "br, gzip")

	if rec.Header().Get("Content-Encoding") != "" {
		t.Fatalf("expected no encoding below min size, got %q", rec.Header().Get("Content-Encoding"))
	}
	if rec.Body.String() != "NeeProkriti server is running" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestMiddleware_SkipsWhenNotAccepted(t *testing.T) {
	for _, accept := range []string{"", "identity", "gzip;q=0, br;q=0"} {
		t.Run(accept, func(t *testing.T) {
			rec := serve(newCatalogRouter(DefaultConfig()), "/products", accept)
			if rec.Header().Get("Content-Encoding") != "" {
				t.Fatalf("expected plain response, got %q", rec.Header().Get("Content-Encoding"))
			}
			if got := decodeProducts(t, rec.Body.Bytes()); len(got) != 50 {
				t.Fatalf("expected 50 products, got %d", len(got))
			}
		})
	}
}

func TestMiddleware_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	rec := serve(newCatalogRouter(cfg), "/products", "gzip")
	if rec.Header().Get("Content-Encoding") != "" || rec.Header().Get("Vary") != "" {
		t.Fatalf("expected untouched response, got headers %v", rec.Header())
	}
}

func TestMiddleware_KeepsExistingEncoding(t *testing.T) {
	r := ginadapter.NewRouter()
	r.Use(Middleware(Config{Enabled: true, EnableGzip: true}))
	payload := strings.Repeat("x", 2048)
	r.GET("/raw", func(c router.Context) error {
		c.Response().Header().Set("Content-Encoding", "identity")
		return c.String(http.StatusOK, payload)
	})

	rec := serve(r, "/raw", "gzip")
	if rec.Header().Get("Content-Encoding") != "identity" || rec.Body.String() != payload {
		t.Fatalf("expected body passed through, got encoding %q", rec.Header().Get("Content-Encoding"))
	}
}

func TestMiddleware_NoContent(t *testing.T) {
	r := ginadapter.NewRouter()
	r.Use(Middleware(DefaultConfig()))
	r.GET("/empty", func(c router.Context) error {
		c.Response().WriteHeader(http.StatusNoContent)
		return nil
	})

	rec := serve(r, "/empty", "gzip")
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("expected empty 204, got %d with %d bytes", rec.Code, rec.Body.Len())
	}
	if rec.Header().Get("Content-Encoding") != "" {
		t.Fatalf("204 must not be encoded, got %q", rec.Header().Get("Content-Encoding"))
	}
}

func TestMiddleware_FlushesRecoveredPanic(t *testing.T) {
	r := ginadapter.NewRouter()
	r.Use(Middleware(DefaultConfig()), recovery.Recovery(logger.Nop()))
	r.GET("/products", func(c router.Context) error {
		panic("cursor exploded")
	})

	rec := serve(r, "/products", "gzip")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal_server_error") {
		t.Fatalf("expected error body, got %q", rec.Body.String())
	}
}

func TestNegotiate(t *testing.T) {
	all := DefaultConfig()
	gzipOnly := Config{Enabled: true, EnableGzip: true}

	tests := []struct {
		name   string
		accept string
		cfg    Config
		want   string
	}{
		{name: "empty", accept: "", cfg: all, want: ""},
		{name: "brotli preferred on tie", accept: "gzip, br", cfg: all, want: "br"},
		{name: "higher gzip quality wins", accept: "br;q=0.5, gzip;q=0.9", cfg: all, want: "gzip"},
		{name: "wildcard", accept: "*", cfg: all, want: "br"},
		{name: "wildcard with brotli disabled", accept: "*", cfg: gzipOnly, want: "gzip"},
		{name: "brotli only but disabled", accept: "br", cfg: gzipOnly, want: ""},
		{name: "explicit refusal", accept: "gzip;q=0", cfg: gzipOnly, want: ""},
		{name: "case insensitive", accept: "GZIP", cfg: gzipOnly, want: "gzip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := negotiate(tt.accept, tt.cfg); got != tt.want {
				t.Fatalf("negotiate(%q) = %q, want %q", tt.accept, got, tt.want)
			}
		})
	}
}
