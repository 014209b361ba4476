package openapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/neeprokriti/catalog-server/pkg/server/router"
	"gopkg.in/yaml.v3"
)

// Route describes one registered endpoint.
type Route struct {
	Method      string
	Path        string
	Annotations EndpointAnnotations
}

// EndpointAnnotations customizes generated OpenAPI operation metadata.
type EndpointAnnotations struct {
	Summary     string
	Description string
	Tags        []string
	OperationID string
	Parameters  []Parameter
	// Responses maps status codes to their description. A 200 "OK" is assumed when empty.
	Responses map[string]string
}

// Spec is a minimal OpenAPI v3 document generated from registered routes.
type Spec struct {
	OpenAPI string               `json:"openapi" yaml:"openapi"`
	Info    SpecInfo             `json:"info" yaml:"info"`
	Paths   map[string]*PathItem `json:"paths" yaml:"paths"`
}

// SpecInfo contains API metadata.
type SpecInfo struct {
	Title   string `json:"title" yaml:"title"`
	Version string `json:"version" yaml:"version"`
}

// PathItem groups operations by HTTP method. Only reads are served.
type PathItem struct {
	Get *Operation `json:"get,omitempty" yaml:"get,omitempty"`
}

// Operation contains minimal operation metadata.
type Operation struct {
	OperationID string               `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Summary     string               `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string             `json:"tags,omitempty" yaml:"tags,omitempty"`
	Parameters  []Parameter          `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Responses   map[string]*Response `json:"responses" yaml:"responses"`
}

// Parameter describes one operation parameter.
type Parameter struct {
	Name        string      `json:"name" yaml:"name"`
	In          string      `json:"in" yaml:"in"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool        `json:"required" yaml:"required"`
	Schema      ParamSchema `json:"schema" yaml:"schema"`
}

// ParamSchema is the JSON schema for parameters.
type ParamSchema struct {
	Type    string      `json:"type" yaml:"type"`
	Enum    []string    `json:"enum,omitempty" yaml:"enum,omitempty"`
	Default interface{} `json:"default,omitempty" yaml:"default,omitempty"`
	Minimum *int        `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum *int        `json:"maximum,omitempty" yaml:"maximum,omitempty"`
}

// Response describes an operation response.
type Response struct {
	Description string `json:"description" yaml:"description"`
}

// QueryParam builds an optional query parameter.
func QueryParam(name, typ, description string) Parameter {
	return Parameter{
		Name:        name,
		In:          "query",
		Description: description,
		Schema:      ParamSchema{Type: typ},
	}
}

// annotations maps handler function pointers to their registered EndpointAnnotations.
var annotations sync.Map

// Annotate attaches OpenAPI metadata to handler and returns handler unchanged, so it can
// wrap the argument of a route registration.
func Annotate(handler router.HandlerFunc, a EndpointAnnotations) router.HandlerFunc {
	if handler == nil {
		return nil
	}
	annotations.Store(reflect.ValueOf(handler).Pointer(), a.normalized())
	return handler
}

func lookupAnnotations(handler router.HandlerFunc) EndpointAnnotations {
	if handler == nil {
		return EndpointAnnotations{}
	}
	if v, ok := annotations.Load(reflect.ValueOf(handler).Pointer()); ok {
		return v.(EndpointAnnotations)
	}
	return EndpointAnnotations{}
}

// CollectRoutes runs register against a recording router and returns the GET routes in
// registration order.
func CollectRoutes(register func(router.Router)) []Route {
	routes := make([]Route, 0)
	if register != nil {
		register(&routeCollector{routes: &routes})
	}
	return routes
}

// BuildSpec documents the GET routes. A path registered twice keeps the first annotated
// registration.
func BuildSpec(title, version string, routes []Route) *Spec {
	spec := &Spec{
		OpenAPI: "3.0.3",
		Info: SpecInfo{
			Title:   orDefault(title, "API"),
			Version: orDefault(version, "0.0.0"),
		},
		Paths: make(map[string]*PathItem, len(routes)),
	}

	annotated := make(map[string]bool, len(routes))
	for _, route := range routes {
		if !strings.EqualFold(strings.TrimSpace(route.Method), http.MethodGet) {
			continue
		}
		path := strings.TrimSpace(route.Path)
		if path == "" {
			continue
		}
		path = "/" + strings.TrimPrefix(path, "/")

		a := route.Annotations.normalized()
		if _, exists := spec.Paths[path]; exists && (annotated[path] || a.empty()) {
			continue
		}
		annotated[path] = !a.empty()
		spec.Paths[path] = &PathItem{Get: newOperation(path, a)}
	}
	return spec
}

func newOperation(path string, a EndpointAnnotations) *Operation {
	op := &Operation{
		OperationID: orDefault(a.OperationID, operationID(path)),
		Summary:     orDefault(a.Summary, "GET "+path),
		Description: a.Description,
		Tags:        append([]string(nil), a.Tags...),
		Parameters:  append([]Parameter(nil), a.Parameters...),
		Responses:   map[string]*Response{"200": {Description: "OK"}},
	}
	if len(op.Tags) == 0 {
		op.Tags = []string{"default"}
		if segments := pathSegments(path); len(segments) > 0 {
			op.Tags = []string{segments[0]}
		}
	}
	if len(a.Responses) > 0 {
		op.Responses = make(map[string]*Response, len(a.Responses))
		for code, description := range a.Responses {
			op.Responses[code] = &Response{Description: description}
		}
	}
	return op
}

// operationID derives "getProductCount" from "/productCount" and "getRoot" from "/".
func operationID(path string) string {
	var id strings.Builder
	id.WriteString("get")
	for _, segment := range pathSegments(path) {
		words := strings.FieldsFunc(segment, func(r rune) bool {
			return r == '-' || r == '_' || r == '.'
		})
		for _, word := range words {
			id.WriteString(strings.ToUpper(word[:1]) + word[1:])
		}
	}
	if id.Len() == len("get") {
		id.WriteString("Root")
	}
	return id.String()
}

func pathSegments(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func (a EndpointAnnotations) normalized() EndpointAnnotations {
	a.Summary = strings.TrimSpace(a.Summary)
	a.Description = strings.TrimSpace(a.Description)
	a.OperationID = strings.TrimSpace(a.OperationID)

	var tags []string
	for _, tag := range a.Tags {
		tag = strings.TrimSpace(tag)
		if tag != "" && !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	a.Tags = tags
	return a
}

func (a EndpointAnnotations) empty() bool {
	return a.Summary == "" && a.Description == "" && a.OperationID == "" &&
		len(a.Tags) == 0 && len(a.Parameters) == 0 && len(a.Responses) == 0
}

// Marshal encodes spec as JSON when format is "json" and as YAML otherwise.
func Marshal(spec *Spec, format string) ([]byte, error) {
	if spec == nil {
		return nil, fmt.Errorf("openapi spec is nil")
	}
	if strings.EqualFold(strings.TrimPrefix(format, "."), "json") {
		return json.MarshalIndent(spec, "", "  ")
	}
	return yaml.Marshal(spec)
}

// WriteSpec writes spec to path, as JSON for a .json extension and YAML otherwise.
// Missing parent directories are created.
func WriteSpec(path string, spec *Spec) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("output path is required")
	}
	data, err := Marshal(spec, filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("marshal openapi spec: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write openapi spec: %w", err)
	}
	return nil
}

// routeCollector is a router.Router that records GET registrations instead of serving.
type routeCollector struct {
	prefix string
	routes *[]Route
}

func (r *routeCollector) GET(path string, handler router.HandlerFunc, _ ...router.MiddlewareFunc) {
	*r.routes = append(*r.routes, Route{
		Method:      http.MethodGet,
		Path:        joinPaths(r.prefix, path),
		Annotations: lookupAnnotations(handler),
	})
}

func (r *routeCollector) Group(prefix string, _ ...router.MiddlewareFunc) router.Router {
	return &routeCollector{prefix: joinPaths(r.prefix, prefix), routes: r.routes}
}

func (r *routeCollector) Use(...router.MiddlewareFunc) {}

func (r *routeCollector) NotFound(router.HandlerFunc) {}

func (r *routeCollector) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
}

func joinPaths(prefix, path string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	path = strings.Trim(strings.TrimSpace(path), "/")
	switch {
	case prefix == "":
		return "/" + path
	case path == "":
		return "/" + prefix
	}
	return "/" + prefix + "/" + path
}
