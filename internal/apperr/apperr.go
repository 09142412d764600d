package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a stable error category surfaced to API clients.
type Code string

const (
	CodePermissionDenied     Code = "permission_denied"
	CodeInvalidTransition    Code = "invalid_transition"
	CodeInvalidStatus        Code = "invalid_status"
	CodeDuplicateApplication Code = "duplicate_application"
	CodeNotFound             Code = "not_found"
	CodeValidation           Code = "validation"
	CodeConflict             Code = "conflict"
	CodeInternal             Code = "internal"
)

// Error carries a stable code alongside a human-readable message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error around an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// MessageOf extracts the client-facing message from err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

// HTTPStatus maps an error code to the HTTP status returned at the boundary.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateApplication, CodeConflict:
		return http.StatusConflict
	case CodeInvalidTransition, CodeInvalidStatus, CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Convenience constructors for the common cases.

func PermissionDenied(message string) *Error {
	if message == "" {
		message = "permission denied"
	}
	return New(CodePermissionDenied, message)
}

func NotFound(entity string) *Error {
	return New(CodeNotFound, entity+" not found")
}

func InvalidTransition(message string) *Error {
	return New(CodeInvalidTransition, message)
}

func InvalidStatus(status string) *Error {
	return New(CodeInvalidStatus, "invalid status: "+status)
}

func DuplicateApplication() *Error {
	return New(CodeDuplicateApplication, "an application for this job already exists")
}
