package catalog

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Limits bounds the page size accepted from clients.
type Limits struct {
	DefaultPageSize int
	// MaxPageSize of zero disables the upper bound.
	MaxPageSize int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{DefaultPageSize: DefaultPageSize, MaxPageSize: MaxPageSize}
}

// ParamError reports every invalid query parameter of a request.
type ParamError struct {
	Fields map[string]string
}

func (e *ParamError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "invalid query parameters: " + strings.Join(parts, "; ")
}

func (e *ParamError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

// ParseListParams reads page, size, search, filter and sort. Absent page and size take
// their defaults; present values must be integers within limits. A missing filter
// becomes "all".
func ParseListParams(q url.Values, limits Limits) (ListParams, error) {
	if limits.DefaultPageSize <= 0 {
		limits.DefaultPageSize = DefaultPageSize
	}

	p := ParseFilterParams(q)
	p.Sort = SortKey(q.Get("sort"))

	perr := &ParamError{}
	p.Page = parsePositive(q, "page", 1, perr)
	p.Size = parsePositive(q, "size", limits.DefaultPageSize, perr)
	if _, failed := perr.Fields["size"]; !failed && limits.MaxPageSize > 0 && p.Size > limits.MaxPageSize {
		perr.add("size", fmt.Sprintf("must not exceed %d", limits.MaxPageSize))
	}

	if len(perr.Fields) > 0 {
		return ListParams{}, perr
	}
	return p, nil
}

// ParseFilterParams reads the search and filter parameters used by counts.
func ParseFilterParams(q url.Values) ListParams {
	return ListParams{
		Search: q.Get("search"),
		Filter: NormalizeCollection(q.Get("filter")),
	}
}

func parsePositive(q url.Values, name string, fallback int, perr *ParamError) int {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		perr.add(name, "must be an integer")
		return 0
	}
	if n < 1 {
		perr.add(name, "must be at least 1")
		return 0
	}
	return n
}
