package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors for the application's error taxonomy. Services return
// these (wrapped in *AppError); the HTTP layer maps them to status codes:
//
//	ErrUnauthenticated → 401 (no valid session)
//	ErrForbidden       → 403 (valid session, wrong owner)
//	ErrNotFound        → 404 (referenced entity absent)
//	ErrValidation      → 400 (malformed/missing input)
//	ErrConflict        → 409 (uniqueness violation on concurrent write)
//
// Anything that doesn't match is an unexpected failure → 500.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
)

type AppError struct {
	Err     error  // sentinel cause (one of the vars above)
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
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

// Conflict reports a uniqueness violation. The message should tell the
// caller how to recover (usually: retry the write as an edit).
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
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

// Unauthenticated returns an AppError for requests with no valid session.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}
