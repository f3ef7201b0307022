package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/wordtrail/internal/repository"
)

// HealthHandler reports whether the service and its storage are up.
type HealthHandler struct {
	db      repository.Pinger
	version string
	logger  *slog.Logger
}

func NewHealthHandler(db repository.Pinger, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		version: version,
		logger:  logger,
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version,omitempty"`
}

// HandleHealth checks storage reachability and reports the service version.
//
// HTTP: GET /api/health — no auth; load balancers and uptime monitors hit
// this anonymously.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Error("health check: database unreachable", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, healthResponse{
			Status:    "error",
			Message:   "database connection failed",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "success",
		Message:   "wordtrail API is running",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
	})
}
