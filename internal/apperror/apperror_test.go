package apperror

import (
	"errors"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	// Each test case checks that errors.Is() correctly identifies the error type
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("challenge", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("a log for this date already exists"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("challenge belongs to another user"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Unauthenticated wraps ErrUnauthenticated",
			err:       Unauthenticated("valid session required"),
			target:    ErrUnauthenticated,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("challenge", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Forbidden does NOT match ErrNotFound",
			err:       Forbidden("nope"),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("log", "abc123"),
			wantMessage: "log not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("endDate", "end date must be after start date"),
			wantMessage: "end date must be after start date",
		},
		{
			name:        "Conflict uses custom message",
			err:         Conflict("a log for this date already exists"),
			wantMessage: "a log for this date already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	// Unwrap() returning the sentinel is what makes errors.Is() work.
	err := NotFound("challenge", "abc123")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestValidationFailedField(t *testing.T) {
	// The Field lets handlers tell the frontend WHICH field was invalid.
	err := ValidationFailed("wordCount", "word count cannot be negative")
	if err.Field != "wordCount" {
		t.Errorf("Field = %q, want %q", err.Field, "wordCount")
	}
}
