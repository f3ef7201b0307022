package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/wordtrail/internal/apperror"
	"github.com/sakif/wordtrail/internal/repository"
	"github.com/sakif/wordtrail/internal/service"
)

// ChallengeHandler manages CRUD operations for writing challenges.
//
// The handler's job is strictly HTTP: decode JSON, run the authorization
// gate, call the service, map the result to a status code. All validation
// and ownership rules live in the service.
type ChallengeHandler struct {
	challenges *service.ChallengeService
	users      repository.UserRepository
	logger     *slog.Logger
}

func NewChallengeHandler(challenges *service.ChallengeService, users repository.UserRepository, logger *slog.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		challenges: challenges,
		users:      users,
		logger:     logger,
	}
}

// challengeRequest is the JSON body for create and update. Dates accept
// either RFC 3339 timestamps or bare "2006-01-02" days — the frontend's
// date picker sends the latter.
type challengeRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	TargetWordCount int    `json:"targetWordCount"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
}

func (req *challengeRequest) toInput() (service.ChallengeInput, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return service.ChallengeInput{}, apperror.ValidationFailed("startDate", "invalid start date")
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return service.ChallengeInput{}, apperror.ValidationFailed("endDate", "invalid end date")
	}
	return service.ChallengeInput{
		Title:           req.Title,
		Description:     req.Description,
		TargetWordCount: req.TargetWordCount,
		StartDate:       start,
		EndDate:         end,
	}, nil
}

// parseDate accepts RFC 3339 or a bare calendar day. A missing value is
// returned as the zero time — the service decides whether that's an error.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

// HandleList returns all of the caller's challenges, newest first, each
// annotated with its current word-count total.
//
// HTTP: GET /api/challenges
func (h *ChallengeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	challenges, err := h.challenges.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, challenges)
}

// HandleCreate creates a new challenge owned by the caller.
//
// HTTP: POST /api/challenges
// BODY: {"title","description","targetWordCount","startDate","endDate"}
func (h *ChallengeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	var req challengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeError(w, err)
		return
	}

	challenge, err := h.challenges.Create(r.Context(), user.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, challenge)
}

// HandleUpdate replaces the mutable fields of a challenge the caller owns
// and returns the record with its recomputed total.
//
// HTTP: PUT /api/challenges/{id}
func (h *ChallengeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "challenge id is required"))
		return
	}

	var req challengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeError(w, err)
		return
	}

	challenge, err := h.challenges.Update(r.Context(), user.ID, id, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, challenge)
}

// HandleDelete removes a challenge the caller owns, together with all of
// its writing logs.
//
// HTTP: DELETE /api/challenges/{id}
func (h *ChallengeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "challenge id is required"))
		return
	}

	if err := h.challenges.Delete(r.Context(), user.ID, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "challenge and associated logs deleted",
	})
}
