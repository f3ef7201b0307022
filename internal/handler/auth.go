package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/wordtrail/internal/auth"
	"github.com/sakif/wordtrail/internal/model"
	"github.com/sakif/wordtrail/internal/repository"
)

// AuthHandler manages the GitHub OAuth login flow and session management.
//
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → receive the code, upsert the user, issue the JWT
//   - HandleLogout         → clear the JWT cookie
//   - HandleMe             → return the signed-in user's profile
//   - HandleSession        → session state for the frontend, works anonymously
type AuthHandler struct {
	github *auth.GitHubProvider
	tokens *auth.TokenService
	users  repository.UserRepository
	logger *slog.Logger
}

func NewAuthHandler(
	github *auth.GitHubProvider,
	tokens *auth.TokenService,
	users repository.UserRepository,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		github: github,
		tokens: tokens,
		users:  users,
		logger: logger,
	}
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// The random state value goes into a short-lived HttpOnly cookie; the
// callback verifies GitHub echoed the same value back (CSRF protection).
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub profile
//  3. Upsert the user, keyed by email — this is the only path that
//     creates or mutates user records
//  4. Issue the JWT session cookie
//  5. Redirect to the dashboard
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state cookie is single-use
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// GitHub sends ?error= when the user denies authorization
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization",
			slog.String("error", errParam),
		)
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	user := &model.User{
		GitHubID:  ghUser.ID,
		Name:      ghUser.DisplayName(),
		Email:     ghUser.Email,
		AvatarURL: ghUser.AvatarURL,
	}
	if err := h.users.Upsert(r.Context(), user); err != nil {
		h.logger.Error("auth callback: upsert failed",
			slog.String("email", ghUser.Email),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	h.logger.Info("user authenticated",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	tokenStr, err := h.tokens.Generate(auth.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		h.logger.Error("auth callback: token generation failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	// HttpOnly → JavaScript can't read the token (XSS protection).
	// SameSite=Lax → sent on top-level navigations, not cross-site POSTs.
	// Secure should be true behind HTTPS in production.
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    tokenStr,
		Path:     "/",
		MaxAge:   int(auth.DefaultSessionDuration / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the JWT cookie, effectively logging the user out.
//
// HTTP: POST /auth/logout
//
// Sessions are stateless, so "logout" means deleting the client-side
// cookie. The token stays technically valid until expiry, but without the
// cookie the browser can't send it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/me
// Auth: required. A valid session whose email has no user row comes back
// as 404 — a server-side anomaly, since the row is created at sign-in.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// sessionResponse is what the frontend polls on page load to decide
// between the sign-in screen and the dashboard.
type sessionResponse struct {
	Authenticated bool        `json:"authenticated"`
	Email         string      `json:"email,omitempty"`
	User          *model.User `json:"user,omitempty"`
}

// HandleSession reports the caller's session state, enriched with the user
// record when one resolves.
//
// HTTP: GET /api/session
// Auth: optional.
//
// Unlike every other user-scoped path, a failed user lookup here does NOT
// fail the request: the page still loads with the bare session claims and
// we log the anomaly. Breaking every page load over a transient lookup
// failure would be worse than a missing avatar.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
		return
	}

	resp := sessionResponse{Authenticated: true, Email: id.Email}

	user, err := h.users.GetByEmail(r.Context(), id.Email)
	if err != nil {
		h.logger.Warn("session enrichment: user lookup failed",
			slog.String("email", id.Email),
			slog.String("error", err.Error()),
		)
	} else {
		resp.User = user
	}

	writeJSON(w, http.StatusOK, resp)
}
