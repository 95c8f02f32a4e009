// Package apperror defines the error kinds shared by every layer.
//
// Services return *AppError values wrapping one of the sentinel kinds below.
// The HTTP layer maps the kind to a status code with errors.Is and shows
// Message (and Hint, when present) to the client.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrExternal     = errors.New("external service failure")
)

type AppError struct {
	Err     error  // kind sentinel
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Hint    string // Optional: what the caller could try instead
	Cause   error  // Optional: underlying failure, never shown to clients in production
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError of the given kind with a custom message.
func New(kind error, message string) *AppError {
	return &AppError{
		Err:     kind,
		Message: message,
	}
}

// WithHint attaches a suggestion for the caller and returns the same error.
func (e *AppError) WithHint(hint string) *AppError {
	e.Hint = hint
	return e
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized covers missing or bad credentials. HTTP handlers map it to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// External wraps a failure of a remote collaborator (calendar, video).
func External(service string, cause error) *AppError {
	return &AppError{
		Err:     ErrExternal,
		Message: fmt.Sprintf("%s request failed", service),
		Cause:   cause,
	}
}
