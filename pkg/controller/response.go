package controller

import (
	"net/http"

	"github.com/neeprokriti/catalog-server/pkg/server/router"
)

// OK writes data as a bare JSON body with HTTP 200.
func OK(c router.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// Error writes the mapped error response for err.
func Error(c router.Context, err error) error {
	statusCode, errorResponse := MapError(c.Request().Context(), err)
	return c.JSON(statusCode, errorResponse)
}
