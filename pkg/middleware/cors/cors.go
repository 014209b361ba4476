// Package cors answers cross-origin requests for the public catalog API.
package cors

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/neeprokriti/catalog-server/pkg/server/router"
)

// Config configures CORS middleware behavior. An AllowOrigins entry of "*" allows
// every origin; entries with a single "*" match by prefix and suffix.
type Config struct {
	Enabled          bool
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultConfig allows every origin to read the catalog.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders:  []string{},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
}

// Middleware returns a router middleware implementing CORS.
func Middleware(cfg Config) router.MiddlewareFunc {
	cfg = normalize(cfg)

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if !cfg.Enabled {
				return next(c)
			}

			req := c.Request()
			res := c.Response()
			origin := req.Header.Get("Origin")
			if origin == "" {
				return next(c)
			}

			if !cfg.isOriginAllowed(origin) {
				if isPreflight(req) {
					res.WriteHeader(http.StatusForbidden)
					return nil
				}
				return next(c)
			}

			applyVary(res.Header())
			cfg.setOriginHeaders(res.Header(), origin)
			if len(cfg.ExposeHeaders) > 0 {
				res.Header().Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposeHeaders, ", "))
			}

			if isPreflight(req) {
				res.Header().Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", "))
				if len(cfg.AllowHeaders) > 0 {
					res.Header().Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", "))
				} else if requested := req.Header.Get("Access-Control-Request-Headers"); requested != "" {
					res.Header().Set("Access-Control-Allow-Headers", requested)
				}
				if cfg.MaxAge > 0 {
					res.Header().Set("Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge/time.Second)))
				}
				res.WriteHeader(http.StatusNoContent)
				return nil
			}

			return next(c)
		}
	}
}

func normalize(cfg Config) Config {
	defaults := DefaultConfig()
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = defaults.AllowMethods
	}
	cfg.AllowMethods = trimAll(cfg.AllowMethods, strings.ToUpper)
	cfg.AllowOrigins = trimAll(cfg.AllowOrigins, nil)
	cfg.AllowHeaders = trimAll(cfg.AllowHeaders, nil)
	cfg.ExposeHeaders = trimAll(cfg.ExposeHeaders, nil)

	// browsers reject credentials with a wildcard origin
	if cfg.allowsAll() {
		cfg.AllowCredentials = false
	}
	return cfg
}

func trimAll(values []string, transform func(string) string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if transform != nil {
			v = transform(v)
		}
		out = append(out, v)
	}
	return out
}

func isPreflight(req *http.Request) bool {
	return req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != ""
}

func (cfg Config) allowsAll() bool {
	for _, allowed := range cfg.AllowOrigins {
		if allowed == "*" {
			return true
		}
	}
	return false
}

func (cfg Config) isOriginAllowed(origin string) bool {
	for _, allowed := range cfg.AllowOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) || wildcardMatch(allowed, origin) {
			return true
		}
	}
	return false
}

func wildcardMatch(pattern, value string) bool {
	if strings.Count(pattern, "*") != 1 {
		return false
	}
	prefix, suffix, _ := strings.Cut(pattern, "*")
	return len(value) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(value, prefix) && strings.HasSuffix(value, suffix)
}

func (cfg Config) setOriginHeaders(h http.Header, origin string) {
	if cfg.AllowCredentials {
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		return
	}
	if cfg.allowsAll() {
		h.Set("Access-Control-Allow-Origin", "*")
		return
	}
	h.Set("Access-Control-Allow-Origin", origin)
}

func applyVary(h http.Header) {
	for _, value := range []string{"Origin", "Access-Control-Request-Method", "Access-Control-Request-Headers"} {
		appendVary(h, value)
	}
}

func appendVary(h http.Header, value string) {
	current := h.Get("Vary")
	if current == "" {
		h.Set("Vary", value)
		return
	}
	for _, part := range strings.Split(current, ",") {
		if strings.EqualFold(strings.TrimSpace(part), value) {
			return
		}
	}
	h.Set("Vary", current+", "+value)
}
