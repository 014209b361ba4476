// Package factory creates the router implementation selected by http.router.
package factory

import (
	"fmt"
	"strings"

	"github.com/neeprokriti/catalog-server/pkg/config"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
	ginadapter "github.com/neeprokriti/catalog-server/pkg/server/router/gin"
	gorillaadapter "github.com/neeprokriti/catalog-server/pkg/server/router/gorilla"
)

// NewRouter creates a router for routerType. Matching ignores case and surrounding space;
// an empty type selects gin.
func NewRouter(routerType string) (router.Router, error) {
	switch strings.TrimSpace(strings.ToLower(routerType)) {
	case "", config.RouterGin:
		return ginadapter.NewRouter(), nil
	case config.RouterGorilla:
		return gorillaadapter.NewRouter(), nil
	default:
		return nil, fmt.Errorf("unsupported router type %q (supported: %s)", routerType, strings.Join(SupportedTypes(), ", "))
	}
}

// SupportedTypes returns the accepted router types in sorted order.
func SupportedTypes() []string {
	return []string{config.RouterGin, config.RouterGorilla}
}
