// Package gorilla provides a gorilla/mux based implementation of the router.Router interface.
package gorilla

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/mux"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
)

// GorillaRouter implements router.Router using gorilla/mux.
type GorillaRouter struct {
	router     *mux.Router
	root       *mux.Router
	parent     *GorillaRouter
	middleware []router.MiddlewareFunc
	mu         *sync.RWMutex
	preflight  map[string]struct{}
}

// NewRouter creates a new GorillaRouter.
func NewRouter() *GorillaRouter {
	m := mux.NewRouter()
	return &GorillaRouter{
		router:    m,
		root:      m,
		mu:        &sync.RWMutex{},
		preflight: make(map[string]struct{}),
	}
}

// GET registers a handler for HTTP GET requests at the specified path.
func (r *GorillaRouter) GET(path string, handler router.HandlerFunc, middleware ...router.MiddlewareFunc) {
	h := router.Chain(handler, middleware...)
	route := r.router.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		serve(w, req, h, r.chain())
	}).Methods(http.MethodGet)

	if tpl, err := route.GetPathTemplate(); err == nil {
		r.ensurePreflight(tpl)
	}
}

// Group creates a route group with common prefix and middleware.
func (r *GorillaRouter) Group(prefix string, middleware ...router.MiddlewareFunc) router.Router {
	return &GorillaRouter{
		router:     r.router.PathPrefix(prefix).Subrouter(),
		root:       r.root,
		parent:     r,
		middleware: append([]router.MiddlewareFunc{}, middleware...),
		mu:         r.mu,
		preflight:  r.preflight,
	}
}

// Use applies middleware to all routes of r and its groups.
func (r *GorillaRouter) Use(middleware ...router.MiddlewareFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, middleware...)
}

// NotFound installs handler for unmatched paths and for known paths hit with another method.
func (r *GorillaRouter) NotFound(handler router.HandlerFunc) {
	h := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		serve(w, req, handler, r.chain())
	})
	r.root.NotFoundHandler = h
	r.root.MethodNotAllowedHandler = h
}

// ServeHTTP implements http.Handler.
func (r *GorillaRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.root.ServeHTTP(w, req)
}

func (r *GorillaRouter) chain() []router.MiddlewareFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stack [][]router.MiddlewareFunc
	for cur := r; cur != nil; cur = cur.parent {
		stack = append(stack, cur.middleware)
	}
	var out []router.MiddlewareFunc
	for i := len(stack) - 1; i >= 0; i-- {
		out = append(out, stack[i]...)
	}
	return out
}

func (r *GorillaRouter) ensurePreflight(template string) {
	r.mu.Lock()
	if _, exists := r.preflight[template]; exists {
		r.mu.Unlock()
		return
	}
	r.preflight[template] = struct{}{}
	r.mu.Unlock()

	r.root.HandleFunc(template, func(w http.ResponseWriter, req *http.Request) {
		serve(w, req, func(c router.Context) error {
			if !c.Response().Written() {
				c.Response().WriteHeader(http.StatusNoContent)
			}
			return nil
		}, r.chain())
	}).Methods(http.MethodOptions)
}

func serve(w http.ResponseWriter, req *http.Request, h router.HandlerFunc, middleware []router.MiddlewareFunc) {
	ctx := &gorillaContext{request: req, response: router.NewStatusWriter(w)}
	if err := router.Chain(h, middleware...)(ctx); err != nil && !ctx.Response().Written() {
		http.Error(ctx.Response(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// gorillaContext adapts mux request/response to router.Context.
type gorillaContext struct {
	request  *http.Request
	response router.ResponseWriter
}

func (c *gorillaContext) Request() *http.Request {
	return c.request
}

func (c *gorillaContext) SetRequest(r *http.Request) {
	c.request = r
}

func (c *gorillaContext) Response() router.ResponseWriter {
	return c.response
}

func (c *gorillaContext) SetResponse(w router.ResponseWriter) {
	c.response = w
}

func (c *gorillaContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *gorillaContext) QueryValues() url.Values {
	return c.request.URL.Query()
}

func (c *gorillaContext) JSON(code int, v interface{}) error {
	return router.WriteJSON(c.response, code, v)
}

func (c *gorillaContext) String(code int, s string) error {
	return router.WriteString(c.response, code, s)
}
