// Package auth provides JWT session tokens and the GitHub OAuth login flow.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User visits /auth/github/login → redirected to GitHub
// 2. GitHub calls back /auth/github/callback with a code
// 3. Server exchanges code for the GitHub profile, upserts the user by email
// 4. Server issues a JWT session token, stores it in an HttpOnly cookie
// 5. On subsequent API calls, middleware reads the cookie, validates the JWT,
//    and puts the identity (user id + email) in the request context
//
// The token carries the EMAIL claim because the email is the correlation key
// between the identity provider and our user records — every user-scoped
// operation starts by resolving the account for the session's email.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "wordtrail"

// DefaultSessionDuration is how long a session cookie stays valid.
// A writing tracker is a daily-habit app; a day-long session means logging
// words doesn't start with a login round-trip every time.
const DefaultSessionDuration = 24 * time.Hour

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens. The same
// secret must be used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Identity is what a validated session resolves to: our internal user ID
// (the JWT subject) and the email claim used to look up the account row.
type Identity struct {
	UserID string
	Email  string
}

// claims is the JWT payload. RegisteredClaims covers the standard fields
// (Subject, ExpiresAt, IssuedAt, Issuer); Email is our one custom claim.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given identity,
// valid for DefaultSessionDuration.
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.GenerateWithDuration(id, DefaultSessionDuration)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used in tests to produce already-expired tokens.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, same key signs and
// verifies. Fine for a single-server deployment.
func (s *TokenService) GenerateWithDuration(id Identity, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the identity it
// carries.
//
// The jwt library checks the signature, expiry, and issuer for us. Passing
// jwt.WithValidMethods pins the algorithm to HS256 so a token claiming
// alg=none (or an RSA key confusion) is rejected outright.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return Identity{}, fmt.Errorf("auth: token has no subject")
	}
	if c.Email == "" {
		return Identity{}, fmt.Errorf("auth: token has no email claim")
	}

	return Identity{UserID: c.Subject, Email: c.Email}, nil
}
