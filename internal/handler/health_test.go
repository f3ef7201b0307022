package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error {
	return errors.New("connection refused")
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	h := NewHealthHandler(env.db, "1.0.0", logger)

	rr := httptest.NewRecorder()
	h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp healthResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "1.0.0", resp.Version)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestHandleHealth_DatabaseDown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	h := NewHealthHandler(failingPinger{}, "1.0.0", logger)

	rr := httptest.NewRecorder()
	h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp healthResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "database connection failed", resp.Message)
}
