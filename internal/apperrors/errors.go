// Package apperrors defines the error taxonomy shared by services and HTTP handlers.
//
// Services return these typed errors (wrapped with fmt.Errorf %w where useful);
// the API layer maps them to an HTTP status with HTTPStatus. Authorization
// failures on resource lookups are reported as NotFoundError so a caller cannot
// tell "does not exist" apart from "not yours".
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports a malformed request value such as a bad identifier.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports a missing resource, or one the caller may not see.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	if e.Resource == "" {
		return "resource not found"
	}
	return e.Resource + " not found"
}

// ForbiddenError reports a caller lacking a role scope for a route.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	if e.Message == "" {
		return "forbidden"
	}
	return e.Message
}

// QueryStartError reports that the log backend did not hand back a query id.
type QueryStartError struct {
	Err error
}

func (e *QueryStartError) Error() string {
	if e.Err == nil {
		return "audit query could not be started"
	}
	return "audit query could not be started: " + e.Err.Error()
}

func (e *QueryStartError) Unwrap() error { return e.Err }

// QueryExecutionError reports that an audit query reached a terminal state other than Complete.
type QueryExecutionError struct {
	Status string
}

func (e *QueryExecutionError) Error() string {
	return "audit query finished with status " + e.Status
}

// InternalError wraps an unexpected failure.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return "internal error"
	}
	return "internal error: " + e.Err.Error()
}

func (e *InternalError) Unwrap() error { return e.Err }

// Validation is shorthand for a ValidationError.
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFound is shorthand for a NotFoundError.
func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// Forbidden is shorthand for a ForbiddenError.
func Forbidden(message string) error {
	return &ForbiddenError{Message: message}
}

// HTTPStatus maps an error to the status code handlers should return.
func HTTPStatus(err error) int {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		forbidden  *ForbiddenError
		start      *QueryStartError
		execution  *QueryExecutionError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &start), errors.As(err, &execution):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a client. Unexpected errors
// are replaced with a generic message so internals do not leak.
func PublicMessage(err error) string {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		forbidden  *ForbiddenError
		start      *QueryStartError
		execution  *QueryExecutionError
	)
	switch {
	case errors.As(err, &validation):
		return validation.Error()
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &forbidden):
		return forbidden.Error()
	case errors.As(err, &start):
		return "audit query could not be started"
	case errors.As(err, &execution):
		return execution.Error()
	default:
		return "Internal server error"
	}
}
