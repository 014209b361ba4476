// Package router abstracts the HTTP router so the catalog routes can be served by
// gin-gonic or gorilla/mux without change.
package router

import (
	"net/http"
	"net/url"
)

// Router registers read-only routes and serves them.
type Router interface {
	GET(path string, handler HandlerFunc, middleware ...MiddlewareFunc)

	// Group creates a route group with common prefix and middleware.
	Group(prefix string, middleware ...MiddlewareFunc) Router

	// Use applies middleware to every route, including ones registered earlier.
	Use(middleware ...MiddlewareFunc)

	// NotFound sets the handler for requests that match no route. It runs behind the
	// global middleware.
	NotFound(handler HandlerFunc)

	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// HandlerFunc handles one request. A returned error becomes a bare 500 if nothing
// was written yet.
type HandlerFunc func(Context) error

// MiddlewareFunc wraps a HandlerFunc and returns a new HandlerFunc.
type MiddlewareFunc func(HandlerFunc) HandlerFunc

// Context provides access to request and response in a router-agnostic way.
type Context interface {
	Request() *http.Request

	// SetRequest replaces the request, typically with one carrying a derived context.
	SetRequest(r *http.Request)

	Response() ResponseWriter

	// SetResponse replaces the writer, typically with one that records the response.
	SetResponse(w ResponseWriter)

	// Query returns the first value of a query parameter.
	Query(name string) string

	// QueryValues returns every query parameter.
	QueryValues() url.Values

	// JSON sends v encoded as JSON with the given status code.
	JSON(code int, v interface{}) error

	// String sends a plain text response with the given status code.
	String(code int, s string) error
}

// ResponseWriter wraps http.ResponseWriter to track response status.
type ResponseWriter interface {
	http.ResponseWriter

	// Status returns the written status code, or 200 before anything was written.
	Status() int

	Written() bool
}

// Chain applies middleware around h so that middleware[0] runs first.
func Chain(h HandlerFunc, middleware ...MiddlewareFunc) HandlerFunc {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}
