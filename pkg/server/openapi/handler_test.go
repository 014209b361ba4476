package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ginadapter "github.com/neeprokriti/catalog-server/pkg/server/router/gin"
)

func TestHandler_ServesBothFormats(t *testing.T) {
	spec := BuildSpec("Catalog", "1.2.3", []Route{{Method: "GET", Path: "/products"}})
	h, err := NewHandler(spec)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	r := ginadapter.NewRouter()
	h.RegisterRoutes(r)

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{path: "/api/openapi/openapi.yaml", contentType: "application/x-yaml", contains: "version: 1.2.3"},
		{path: "/api/openapi/openapi.json", contentType: "application/json", contains: `"version": "1.2.3"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Fatalf("content type = %q, want %q", got, tt.contentType)
			}
			if rec.Header().Get("Cache-Control") == "" {
				t.Fatal("expected Cache-Control header")
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Fatalf("body %q does not contain %q", rec.Body.String(), tt.contains)
			}
		})
	}
}

func TestHandler_JSONIsValid(t *testing.T) {
	h, err := NewHandler(BuildSpec("Catalog", "1.0.0", nil))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(h.json, &doc); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
}

func TestNewHandler_NilSpec(t *testing.T) {
	if _, err := NewHandler(nil); err == nil {
		t.Fatal("expected error for nil spec")
	}
}
