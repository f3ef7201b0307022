package handler

import (
	"net/http"

	"github.com/sakif/wordtrail/internal/apperror"
	"github.com/sakif/wordtrail/internal/auth"
	"github.com/sakif/wordtrail/internal/model"
	"github.com/sakif/wordtrail/internal/repository"
)

// currentUser is the authorization gate: it takes the session identity the
// auth middleware put in the context and resolves it to a user record by
// the email claim.
//
// Failure modes:
//   - no identity in context → Unauthenticated (the middleware should have
//     rejected the request already; this is the belt to its braces)
//   - valid session but no user row for the email → NotFound. That's a
//     server-side anomaly (the row is created at sign-in and never
//     deleted), not a permission failure, so it is NOT a 403.
//
// Every user-scoped handler calls this first and passes the resolved user
// into the service layer — the services never read ambient session state.
func currentUser(r *http.Request, users repository.UserRepository) (*model.User, error) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil, apperror.Unauthenticated("valid session required")
	}

	user, err := users.GetByEmail(r.Context(), id.Email)
	if err != nil {
		return nil, err
	}

	return user, nil
}
