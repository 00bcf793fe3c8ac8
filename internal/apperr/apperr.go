// Package apperr defines structured error types for scheduling operations.
// Errors carry a machine-readable code, a human-readable message,
// and optional details for API consumers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error code constants.
const (
	NotFound        = "NOT_FOUND"
	NoAvailability  = "NO_AVAILABILITY"
	Unauthenticated = "UNAUTHENTICATED"
	InvalidInput    = "INVALID_INPUT"
	Conflict        = "CONFLICT"
	StoreError      = "STORE_ERROR"
)

// Error represents a structured error with a machine-readable code.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Store wraps a persistence failure; the message is the cause verbatim.
func Store(err error) *Error {
	return &Error{Code: StoreError, Message: err.Error(), Err: err}
}

// WithDetails returns the error with the given details map attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case NotFound:
		return http.StatusNotFound
	case NoAvailability, Conflict:
		return http.StatusConflict
	case Unauthenticated:
		return http.StatusUnauthorized
	case InvalidInput:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
