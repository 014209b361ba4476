// Package httpapi exposes the catalog over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/neeprokriti/catalog-server/pkg/catalog"
	"github.com/neeprokriti/catalog-server/pkg/controller"
	"github.com/neeprokriti/catalog-server/pkg/observability/logger"
	"github.com/neeprokriti/catalog-server/pkg/server/openapi"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
)

// LivenessMessage is the plain-text body of GET /.
const LivenessMessage = "NeeProkriti server is running"

// Catalog is the query surface the handlers depend on. *catalog.Service implements it.
type Catalog interface {
	ListProducts(ctx context.Context, p catalog.ListParams) ([]catalog.Document, error)
	CountProducts(ctx context.Context, p catalog.ListParams) (int64, error)
	Categories(ctx context.Context, collection string) ([]catalog.CategorySummary, error)
	SearchProducts(ctx context.Context, text string) ([]catalog.Document, error)
}

// CountResponse is the body of GET /productCount.
type CountResponse struct {
	Count int64 `json:"count"`
}

// Handler serves the catalog endpoints.
type Handler struct {
	catalog Catalog
	limits  catalog.Limits
	logger  logger.Logger
}

// NewHandler creates catalog handlers. Zero limits fall back to catalog.DefaultLimits.
func NewHandler(c Catalog, limits catalog.Limits, log logger.Logger) (*Handler, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if limits.DefaultPageSize <= 0 {
		limits = catalog.DefaultLimits()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{catalog: c, limits: limits, logger: log}, nil
}

// Register mounts the catalog routes on r.
func (h *Handler) Register(r router.Router) {
	r.GET("/", openapi.Annotate(h.liveness, openapi.EndpointAnnotations{
		Summary:     "Liveness message",
		Tags:        []string{"status"},
		OperationID: "getRoot",
	}))
	r.GET("/products", openapi.Annotate(h.listProducts, openapi.EndpointAnnotations{
		Summary:     "List products",
		Description: "One page of products matching the optional name search and collection filter.",
		Tags:        []string{"products"},
		Parameters: []openapi.Parameter{
			h.pageParam(),
			h.sizeParam(),
			openapi.QueryParam("search", "string", "case-insensitive match on the product name"),
			filterParam("filter"),
			sortParam(),
		},
		Responses: map[string]string{
			"200": "JSON array of products",
			"400": "invalid page or size",
		},
	}))
	r.GET("/productCount", openapi.Annotate(h.productCount, openapi.EndpointAnnotations{
		Summary: "Count products",
		Tags:    []string{"products"},
		Parameters: []openapi.Parameter{
			openapi.QueryParam("search", "string", "case-insensitive match on the product name"),
			filterParam("filter"),
		},
		Responses: map[string]string{"200": `{"count": n}`},
	}))
	r.GET("/categories", openapi.Annotate(h.categories, openapi.EndpointAnnotations{
		Summary:     "Product counts per category",
		Description: "Categories present in the collection with the number of products in each.",
		Tags:        []string{"categories"},
		Parameters:  []openapi.Parameter{filterParam("collection")},
		Responses:   map[string]string{"200": "JSON array of {category, totalProducts}"},
	}))
	r.GET("/searchProducts", openapi.Annotate(h.searchProducts, openapi.EndpointAnnotations{
		Summary:     "Search products by name",
		Description: "Every product whose name matches, across all collections and without pagination.",
		Tags:        []string{"products"},
		Parameters: []openapi.Parameter{
			openapi.QueryParam("search", "string", "case-insensitive match on the product name"),
		},
		Responses: map[string]string{"200": "JSON array of products"},
	}))
}

func (h *Handler) liveness(c router.Context) error {
	return c.String(http.StatusOK, LivenessMessage)
}

func (h *Handler) listProducts(c router.Context) error {
	params, err := catalog.ParseListParams(c.QueryValues(), h.limits)
	if err != nil {
		return h.fail(c, "list products", err)
	}
	products, err := h.catalog.ListProducts(c.Request().Context(), params)
	if err != nil {
		return h.fail(c, "list products", err)
	}
	return controller.OK(c, nonNil(products))
}

func (h *Handler) productCount(c router.Context) error {
	count, err := h.catalog.CountProducts(c.Request().Context(), catalog.ParseFilterParams(c.QueryValues()))
	if err != nil {
		return h.fail(c, "count products", err)
	}
	return controller.OK(c, CountResponse{Count: count})
}

func (h *Handler) categories(c router.Context) error {
	collection := catalog.NormalizeCollection(c.Query("collection"))
	summaries, err := h.catalog.Categories(c.Request().Context(), collection)
	if err != nil {
		return h.fail(c, "list categories", err)
	}
	if summaries == nil {
		summaries = []catalog.CategorySummary{}
	}
	return controller.OK(c, summaries)
}

func (h *Handler) searchProducts(c router.Context) error {
	products, err := h.catalog.SearchProducts(c.Request().Context(), c.Query("search"))
	if err != nil {
		return h.fail(c, "search products", err)
	}
	return controller.OK(c, nonNil(products))
}

// fail writes the error response for err. Parameter errors become 400 with one detail per
// field; everything else is logged and mapped by controller.MapError.
func (h *Handler) fail(c router.Context, operation string, err error) error {
	var perr *catalog.ParamError
	if errors.As(err, &perr) {
		details := make(map[string]interface{}, len(perr.Fields))
		for field, msg := range perr.Fields {
			details[field] = msg
		}
		return controller.Error(c, controller.NewValidationError("invalid query parameters", details))
	}

	h.logger.WithContext(c.Request().Context()).Error("catalog query failed",
		"operation", operation,
		"error", err,
	)
	return controller.Error(c, err)
}

func nonNil(products []catalog.Document) []catalog.Document {
	if products == nil {
		return []catalog.Document{}
	}
	return products
}

func (h *Handler) pageParam() openapi.Parameter {
	p := openapi.QueryParam("page", "integer", "1-based page number")
	p.Schema.Default = 1
	p.Schema.Minimum = intPtr(1)
	return p
}

func (h *Handler) sizeParam() openapi.Parameter {
	p := openapi.QueryParam("size", "integer", "page size")
	p.Schema.Default = h.limits.DefaultPageSize
	p.Schema.Minimum = intPtr(1)
	if h.limits.MaxPageSize > 0 {
		p.Schema.Maximum = intPtr(h.limits.MaxPageSize)
	}
	return p
}

func filterParam(name string) openapi.Parameter {
	p := openapi.QueryParam(name, "string", `exact collection name; "all" or absent for every collection`)
	p.Schema.Default = catalog.AllCollections
	return p
}

func sortParam() openapi.Parameter {
	p := openapi.QueryParam("sort", "string", "low: price ascending, high: price descending, otherwise newest first")
	p.Schema.Enum = []string{string(catalog.SortDefault), string(catalog.SortLow), string(catalog.SortHigh)}
	p.Schema.Default = string(catalog.SortDefault)
	return p
}

func intPtr(v int) *int { return &v }
