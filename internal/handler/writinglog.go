package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/wordtrail/internal/apperror"
	"github.com/sakif/wordtrail/internal/repository"
	"github.com/sakif/wordtrail/internal/service"
)

// LogHandler manages writing-log operations.
type LogHandler struct {
	logs   *service.LogService
	users  repository.UserRepository
	logger *slog.Logger
}

func NewLogHandler(logs *service.LogService, users repository.UserRepository, logger *slog.Logger) *LogHandler {
	return &LogHandler{
		logs:   logs,
		users:  users,
		logger: logger,
	}
}

// logRequest is the JSON body for the upsert and update endpoints.
//
// WordCount is a *int so "missing" and "0" are distinguishable: logging
// zero words on a bad day is valid input, omitting the field is not.
type logRequest struct {
	ChallengeID string `json:"challengeId"`
	Date        string `json:"date"`
	WordCount   *int   `json:"wordCount"`
	Notes       string `json:"notes"`
}

func (req *logRequest) toInput() (service.LogInput, error) {
	if req.Date == "" {
		return service.LogInput{}, apperror.ValidationFailed("date", "date is required")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return service.LogInput{}, apperror.ValidationFailed("date", "invalid date")
	}
	if req.WordCount == nil {
		return service.LogInput{}, apperror.ValidationFailed("wordCount", "word count is required")
	}
	return service.LogInput{
		ChallengeID: req.ChallengeID,
		Date:        date,
		WordCount:   *req.WordCount,
		Notes:       req.Notes,
	}, nil
}

// HandleList returns the caller's logs, newest date first, each with its
// parent challenge's title. An optional ?challengeId= query narrows the
// listing to one challenge.
//
// HTTP: GET /api/logs[?challengeId=...]
func (h *LogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	challengeID := r.URL.Query().Get("challengeId")

	logs, err := h.logs.List(r.Context(), user.ID, challengeID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, logs)
}

// HandleUpsert records a day's progress against a challenge: 201 when a new
// log was created, 200 when the day's existing log was overwritten, 409
// when a concurrent create for the same day won the race.
//
// HTTP: POST /api/logs
// BODY: {"challengeId","date","wordCount","notes"}
func (h *LogHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	var req logRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if req.ChallengeID == "" {
		writeError(w, apperror.ValidationFailed("challengeId", "challenge id is required"))
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeError(w, err)
		return
	}

	log, created, err := h.logs.Upsert(r.Context(), user.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, log)
}

// HandleUpdate overwrites a log's date, word count, and notes by its id.
//
// HTTP: PUT /api/logs/{id}
func (h *LogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "log id is required"))
		return
	}

	var req logRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeError(w, err)
		return
	}

	log, err := h.logs.Update(r.Context(), user.ID, id, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, log)
}

// HandleDelete removes a log by its id and decrements the parent
// challenge's total.
//
// HTTP: DELETE /api/logs/{id}
func (h *LogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "log id is required"))
		return
	}

	if err := h.logs.Delete(r.Context(), user.ID, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "log deleted"})
}
