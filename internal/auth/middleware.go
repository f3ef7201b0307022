package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
// A package-private key type means only this package can read or write the
// identity value — no collisions with other packages' context values.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth is a middleware that enforces authentication on protected
// routes.
//
// It reads the JWT from the "token" HttpOnly cookie, validates it, and
// stores the identity in the request context. If the token is missing or
// invalid, it returns 401 Unauthorized and stops the request chain.
//
// This runs BEFORE every mutating or user-scoped read operation — handlers
// behind it can assume IdentityFromContext succeeds.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"unauthenticated","message":"valid session required"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
		})
	}
}

// OptionalAuth extracts the identity if a valid token is present, but does
// NOT block the request if it's missing or invalid.
//
// Used on the session endpoint, which must answer "who am I?" for both
// anonymous and signed-in callers.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := extractIdentity(r, tokens); err == nil {
				r = r.WithContext(ContextWithIdentity(r.Context(), id))
			}
			// Always continue — no 401 even without a token
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithIdentity returns a copy of ctx carrying the authenticated
// identity. The middleware uses it after token validation; handler tests
// use it to simulate a signed-in request without minting a token.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the authenticated identity from the request
// context. Returns (Identity{}, false) if the request is anonymous.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// extractIdentity reads the JWT cookie and validates it. Shared by
// RequireAuth and OptionalAuth.
func extractIdentity(r *http.Request, tokens *TokenService) (Identity, error) {
	cookie, err := r.Cookie("token")
	if err != nil {
		// http.ErrNoCookie — not an error, just anonymous
		return Identity{}, err
	}
	return tokens.Validate(cookie.Value)
}
