package requestid

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/neeprokriti/catalog-server/pkg/observability/logger"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
	ginadapter "github.com/neeprokriti/catalog-server/pkg/server/router/gin"
)

var uuidPattern = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)

func serve(header string) (*httptest.ResponseRecorder, string) {
	r := ginadapter.NewRouter()
	r.Use(RequestID())

	var fromContext string
	r.GET("/products", func(c router.Context) error {
		fromContext = logger.RequestIDFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, fromContext
}

func TestRequestID_GeneratesUUID(t *testing.T) {
	w, fromContext := serve("")

	got := w.Header().Get(RequestIDHeader)
	if !uuidPattern.MatchString(got) {
		t.Fatalf("expected generated UUID, got %q", got)
	}
	if fromContext != got {
		t.Fatalf("context id %q differs from header %q", fromContext, got)
	}
}

func TestRequestID_RejectsMalformedHeader(t *testing.T) {
	tests := []string{
		"has space",
		strings.Repeat("a", maxRequestIDLength+1),
		"tab\tinside",
	}
	for _, header := range tests {
		w, _ := serve(header)
		if got := w.Header().Get(RequestIDHeader); got == header || !uuidPattern.MatchString(got) {
			t.Fatalf("expected %q to be replaced with a UUID, got %q", header, got)
		}
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	a, _ := serve("")
	b, _ := serve("")
	if a.Header().Get(RequestIDHeader) == b.Header().Get(RequestIDHeader) {
		t.Fatal("expected distinct request IDs")
	}
}

func TestProperty_PreservesWellFormedHeader(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	genRequestID := gen.AlphaString().SuchThat(func(s string) bool {
		return len(s) > 0 && len(s) <= maxRequestIDLength
	})

	properties.Property("well-formed X-Request-ID is echoed and stored in context", prop.ForAll(
		func(existingID string) bool {
			w, fromContext := serve(existingID)
			return w.Header().Get(RequestIDHeader) == existingID && fromContext == existingID
		},
		genRequestID,
	))

	properties.TestingRun(t)
}
