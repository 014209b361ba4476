// Package controller maps application errors and results to HTTP responses.
package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/neeprokriti/catalog-server/pkg/observability/logger"
	mongostore "github.com/neeprokriti/catalog-server/pkg/store/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

// Error codes carried in AppError.Code.
const (
	CodeValidation  = "validation_error"
	CodeNotFound    = "not_found"
	CodeUnavailable = "service_unavailable"
	CodeTimeout     = "timeout"
	CodeInternal    = "internal_server_error"
)

// AppError is an error with an HTTP status and a client-safe message.
type AppError struct {
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error     string                 `json:"error"`
	Message   string                 `json:"message,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// NewValidationError creates a 400 error listing the offending fields in details.
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Status: http.StatusBadRequest, Details: details}
}

// NewNotFoundError creates a 404 error.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Status: http.StatusNotFound}
}

// NewUnavailableError creates a 503 error for an unreachable dependency.
func NewUnavailableError(message string, cause error) *AppError {
	return &AppError{Code: CodeUnavailable, Message: message, Status: http.StatusServiceUnavailable, Cause: cause}
}

// NewInternalError creates a 500 error with optional cause.
func NewInternalError(message string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Status: http.StatusInternalServerError, Cause: cause}
}

// MapError converts err into a status code and response body. Causes are never exposed.
func MapError(ctx context.Context, err error) (int, ErrorResponse) {
	appErr := classify(err)
	status := appErr.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	code := appErr.Code
	if code == "" {
		code = CodeInternal
	}
	message := appErr.Message
	if message == "" {
		message = "an unexpected error occurred"
	}
	return status, ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: logger.RequestIDFromContext(ctx),
		Details:   appErr.Details,
	}
}

// classify turns store and context failures into AppErrors.
func classify(err error) *AppError {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case isServerSelection(err):
		return NewUnavailableError("the database is unavailable", err)
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err):
		return &AppError{Code: CodeTimeout, Message: "the database did not answer in time", Status: http.StatusGatewayTimeout, Cause: err}
	case errors.Is(err, mongostore.ErrClosed), errors.Is(err, mongo.ErrClientDisconnected), mongo.IsNetworkError(err):
		return NewUnavailableError("the database is unavailable", err)
	default:
		return NewInternalError("an unexpected error occurred", err)
	}
}

// isServerSelection reports whether no server could be selected. The driver also reports
// these as timeouts, so they are checked first.
func isServerSelection(err error) bool {
	var selErr topology.ServerSelectionError
	return errors.As(err, &selErr) || errors.Is(err, topology.ErrServerSelectionTimeout)
}
