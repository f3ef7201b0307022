package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// Every error response from the API has the same shape:
//
//	{"error": "not_found", "message": "challenge not found with id abc123"}
//
// so the frontend always knows what fields to expect, regardless of whether
// it's a 400, 404, or 500.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/wordtrail/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
// Headers and status code must be set BEFORE the body is written — once
// Encode calls w.Write, header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent — we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and
// sends it.
//
// This is the single place where the service layer's error taxonomy
// (apperror sentinels) gets translated to HTTP. The services themselves
// never see a status code.
//
// errors.Is() walks the whole error chain via Unwrap(), so a service error
// like fmt.Errorf("creating challenge: %w", apperror.ValidationFailed(...))
// still matches ErrValidation here.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError

	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest // 400
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized // 401
			errorType = "unauthenticated"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden // 403
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound // 404
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict // 409
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	// Not a typed application error — an unexpected storage or logic
	// failure. Log it server-side; the client gets no internals.
	slog.Error("unexpected error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an unexpected error occurred",
	})
}
