package errors

import (
	"net/http"
)

// APIError is the error shape handlers push into the gin error chain.
// Kind is the machine-readable taxonomy exposed to clients.
type APIError struct {
	Status   int    `json:"-"`
	Kind     string `json:"kind"`
	Message  string `json:"error"`
	Internal error  `json:"-"`
}

// Error returns the error message
func (e *APIError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the original error
func (e *APIError) Unwrap() error {
	return e.Internal
}

func newAPIError(status int, kind, message string, err error) *APIError {
	return &APIError{
		Status:   status,
		Kind:     kind,
		Message:  message,
		Internal: err,
	}
}

func Unauthorized(message string, err error) *APIError {
	return newAPIError(http.StatusUnauthorized, "unauthenticated", message, err)
}

func BadRequest(message string, err error) *APIError {
	return newAPIError(http.StatusBadRequest, "invalid_argument", message, err)
}

func NotFound(message string, err error) *APIError {
	return newAPIError(http.StatusNotFound, "not_found", message, err)
}

func Forbidden(message string, err error) *APIError {
	return newAPIError(http.StatusForbidden, "forbidden", message, err)
}

func UnprocessableEntity(message string, err error) *APIError {
	return newAPIError(http.StatusUnprocessableEntity, "invalid_argument", message, err)
}

func Conflict(message string, err error) *APIError {
	return newAPIError(http.StatusConflict, "conflict", message, err)
}

func Internal(err error) *APIError {
	return newAPIError(http.StatusInternalServerError, "internal", "Internal server error", err)
}

// NewValidationError wraps a request binding failure
func NewValidationError(err error) *APIError {
	return BadRequest("Invalid input", err)
}
