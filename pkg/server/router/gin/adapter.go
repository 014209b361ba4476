// Package gin provides a gin-gonic based implementation of the router.Router interface.
package gin

import (
	"net/http"
	"net/url"
	"sync"

	ginpkg "github.com/gin-gonic/gin"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
)

// GinRouter implements router.Router using gin-gonic/gin.
type GinRouter struct {
	engine     *ginpkg.Engine
	group      *ginpkg.RouterGroup
	parent     *GinRouter
	middleware []router.MiddlewareFunc
	mu         *sync.RWMutex
	preflight  map[string]struct{}
}

// NewRouter creates a new GinRouter in release mode with no default gin middleware.
func NewRouter() *GinRouter {
	ginpkg.SetMode(ginpkg.ReleaseMode)
	return &GinRouter{
		engine:    ginpkg.New(),
		mu:        &sync.RWMutex{},
		preflight: make(map[string]struct{}),
	}
}

// GET registers a handler for HTTP GET requests at the specified path.
func (r *GinRouter) GET(path string, handler router.HandlerFunc, middleware ...router.MiddlewareFunc) {
	route := func(gc *ginpkg.Context) {
		serve(gc, router.Chain(handler, middleware...), r.chain())
	}
	if r.group != nil {
		r.group.GET(path, route)
	} else {
		r.engine.GET(path, route)
	}
	r.ensurePreflight(path)
}

// Group creates a route group with common prefix and middleware.
func (r *GinRouter) Group(prefix string, middleware ...router.MiddlewareFunc) router.Router {
	var group *ginpkg.RouterGroup
	if r.group == nil {
		group = r.engine.Group(prefix)
	} else {
		group = r.group.Group(prefix)
	}
	return &GinRouter{
		engine:     r.engine,
		group:      group,
		parent:     r,
		middleware: append([]router.MiddlewareFunc{}, middleware...),
		mu:         r.mu,
		preflight:  r.preflight,
	}
}

// Use applies middleware to all routes of r and its groups.
func (r *GinRouter) Use(middleware ...router.MiddlewareFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, middleware...)
}

// NotFound installs handler for unmatched requests.
func (r *GinRouter) NotFound(handler router.HandlerFunc) {
	r.engine.NoRoute(func(gc *ginpkg.Context) {
		serve(gc, handler, r.chain())
	})
}

// ServeHTTP implements http.Handler.
func (r *GinRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}

// chain returns the effective middleware at request time, outermost group first.
func (r *GinRouter) chain() []router.MiddlewareFunc {
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

// ensurePreflight answers OPTIONS for every registered path so CORS middleware can run.
func (r *GinRouter) ensurePreflight(path string) {
	key := path
	if r.group != nil {
		key = r.group.BasePath() + path
	}

	r.mu.Lock()
	if _, exists := r.preflight[key]; exists {
		r.mu.Unlock()
		return
	}
	r.preflight[key] = struct{}{}
	r.mu.Unlock()

	r.engine.OPTIONS(key, func(gc *ginpkg.Context) {
		serve(gc, func(c router.Context) error {
			if !c.Response().Written() {
				c.Response().WriteHeader(http.StatusNoContent)
			}
			return nil
		}, r.chain())
	})
}

func serve(gc *ginpkg.Context, h router.HandlerFunc, middleware []router.MiddlewareFunc) {
	ctx := &ginContext{ctx: gc, response: router.NewStatusWriter(gc.Writer)}
	if err := router.Chain(h, middleware...)(ctx); err != nil && !ctx.Response().Written() {
		gc.AbortWithStatus(http.StatusInternalServerError)
	}
}

// ginContext adapts gin.Context to router.Context.
type ginContext struct {
	ctx      *ginpkg.Context
	response router.ResponseWriter
}

func (c *ginContext) Request() *http.Request {
	return c.ctx.Request
}

func (c *ginContext) SetRequest(r *http.Request) {
	c.ctx.Request = r
}

func (c *ginContext) Response() router.ResponseWriter {
	return c.response
}

func (c *ginContext) SetResponse(w router.ResponseWriter) {
	c.response = w
}

func (c *ginContext) Query(name string) string {
	return c.ctx.Query(name)
}

func (c *ginContext) QueryValues() url.Values {
	return c.ctx.Request.URL.Query()
}

func (c *ginContext) JSON(code int, v interface{}) error {
	return router.WriteJSON(c.response, code, v)
}

func (c *ginContext) String(code int, s string) error {
	return router.WriteString(c.response, code, s)
}
