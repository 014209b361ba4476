// Package openapi builds an OpenAPI document from registered routes and serves it.
package openapi

import (
	"fmt"
	"net/http"

	"github.com/neeprokriti/catalog-server/pkg/server/router"
)

// Handler serves a pre-rendered OpenAPI document.
type Handler struct {
	yaml []byte
	json []byte
}

// NewHandler renders spec once in both formats.
func NewHandler(spec *Spec) (*Handler, error) {
	y, err := Marshal(spec, "yaml")
	if err != nil {
		return nil, fmt.Errorf("render openapi yaml: %w", err)
	}
	j, err := Marshal(spec, "json")
	if err != nil {
		return nil, fmt.Errorf("render openapi json: %w", err)
	}
	return &Handler{yaml: y, json: j}, nil
}

// ServeYAML writes the document as YAML.
func (h *Handler) ServeYAML(c router.Context) error {
	return h.write(c, "application/x-yaml", h.yaml)
}

// ServeJSON writes the document as JSON.
func (h *Handler) ServeJSON(c router.Context) error {
	return h.write(c, "application/json", h.json)
}

func (h *Handler) write(c router.Context, contentType string, data []byte) error {
	c.Response().Header().Set("Content-Type", contentType)
	c.Response().Header().Set("Cache-Control", "public, max-age=300")
	c.Response().WriteHeader(http.StatusOK)
	_, err := c.Response().Write(data)
	return err
}

// RegisterRoutes registers OpenAPI routes on the given router
func (h *Handler) RegisterRoutes(r router.Router) {
	r.GET("/api/openapi/openapi.yaml", h.ServeYAML)
	r.GET("/api/openapi/openapi.json", h.ServeJSON)
}
