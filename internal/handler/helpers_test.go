package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/sakif/wordtrail/internal/auth"
	"github.com/sakif/wordtrail/internal/model"
	"github.com/sakif/wordtrail/internal/repository/sqlite"
	"github.com/sakif/wordtrail/internal/service"
)

// HANDLER TEST SETUP:
// The handlers are exercised over a real in-memory database rather than
// mocks — the service and repository layers have their own isolated tests,
// and at this level what matters is the full request → status code → JSON
// body path, including how storage errors surface.
//
// Authentication is simulated by injecting an Identity into the request
// context with auth.ContextWithIdentity, exactly what the middleware does
// after validating a token. The middleware itself is tested in the auth
// package.

type testEnv struct {
	db         *sqlite.DB
	users      *sqlite.UserRepo
	challenges *ChallengeHandler
	logs       *LogHandler
	auth       *AuthHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	users := sqlite.NewUserRepo(db)
	challenges := sqlite.NewChallengeRepo(db)
	logs := sqlite.NewLogRepo(db)

	challengeSvc := service.NewChallengeService(challenges, logger)
	logSvc := service.NewLogService(logs, challenges, logger)

	tokens, err := auth.NewTokenService("test-secret-with-enough-length")
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}
	github := auth.NewGitHubProvider("client-id", "client-secret", "http://localhost/auth/github/callback")

	return &testEnv{
		db:         db,
		users:      users,
		challenges: NewChallengeHandler(challengeSvc, users, logger),
		logs:       NewLogHandler(logSvc, users, logger),
		auth:       NewAuthHandler(github, tokens, users, logger),
	}
}

// seedUser inserts a user the way the OAuth callback would.
func (e *testEnv) seedUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{
		GitHubID:  42,
		Name:      "Test Writer",
		Email:     email,
		AvatarURL: "https://example.com/avatar.png",
	}
	if err := e.users.Upsert(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

// newRequest builds a request with an optional JSON body and, when user is
// non-nil, the identity the auth middleware would have attached.
func newRequest(t *testing.T, method, target string, body any, user *model.User) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	r := httptest.NewRequest(method, target, &buf)
	if user != nil {
		id := auth.Identity{UserID: user.ID, Email: user.Email}
		r = r.WithContext(auth.ContextWithIdentity(r.Context(), id))
	}
	return r
}

// newRawRequest is newRequest with a literal body, for malformed-JSON cases.
func newRawRequest(method, target, body string, user *model.User) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	if user != nil {
		id := auth.Identity{UserID: user.ID, Email: user.Email}
		r = r.WithContext(auth.ContextWithIdentity(r.Context(), id))
	}
	return r
}

// decodeBody unmarshals the recorded JSON response into out.
func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}
