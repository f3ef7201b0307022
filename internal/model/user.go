// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// We use GitHub OAuth as the identity provider. The EMAIL is the correlation
// key back to the provider — the session carries an email claim, and every
// request resolves the account by email. We still generate our own internal
// string ID (xid) so primary keys aren't tied to a third party's numbering.
//
// Users are created on first successful sign-in and refreshed by the sign-in
// upsert; nothing in the app ever deletes one.
type User struct {
	ID        string    `json:"id"        db:"id"`
	GitHubID  int64     `json:"githubId"  db:"github_id"` // GitHub's numeric user ID
	Name      string    `json:"name"      db:"name"`       // Display name (falls back to login)
	Email     string    `json:"email"     db:"email"`      // Unique — identity correlation key
	AvatarURL string    `json:"avatarUrl" db:"avatar_url"` // Profile picture URL
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
