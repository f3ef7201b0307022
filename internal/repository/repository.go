// Package repository defines the storage interfaces consumed by the service
// layer.
//
// The services program against these interfaces, not against the sqlite
// package — tests inject in-memory mocks, and the storage backend could be
// swapped without touching business logic.
package repository

import (
	"context"

	"github.com/sakif/wordtrail/internal/model"
)

// LogFilter scopes a writing-log listing. UserID is always required — logs
// are never listed across users. ChallengeID is optional; when set, only
// logs for that challenge are returned.
type LogFilter struct {
	UserID      string
	ChallengeID string
}

// UserRepository manages user accounts. There is deliberately no Delete —
// accounts are only ever created and refreshed by the sign-in upsert.
type UserRepository interface {
	// Upsert inserts the user on first sign-in or refreshes the profile
	// fields of the existing row, keyed by email. On return the struct
	// carries the canonical ID and timestamps.
	Upsert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// ChallengeRepository manages challenges and their denormalized word-count
// totals.
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *model.Challenge) error
	GetByID(ctx context.Context, id string) (*model.Challenge, error)
	// ListByUser returns the user's challenges newest-first, each with
	// CurrentWordCount computed from its logs via an aggregate join.
	ListByUser(ctx context.Context, userID string) ([]model.Challenge, error)
	// Update replaces the mutable fields (title, description, target,
	// dates). ID, owner, and the accumulated total are untouched.
	Update(ctx context.Context, challenge *model.Challenge) error
	// DeleteCascade removes the challenge's logs and then the challenge,
	// atomically. Returns how many logs were removed.
	DeleteCascade(ctx context.Context, id string) (int64, error)
	// AdjustWordCount adds delta (may be negative) to the denormalized
	// total. Called by every log mutation path.
	AdjustWordCount(ctx context.Context, id string, delta int) error
	// SumLogs recomputes the total from the log rows.
	SumLogs(ctx context.Context, id string) (int, error)
	// SetWordCount overwrites the denormalized total with a recomputed sum.
	SetWordCount(ctx context.Context, id string, total int) error
}

// LogRepository manages writing logs. Create and Update surface a violation
// of the one-log-per-(challenge,user,day) uniqueness constraint as
// apperror.ErrConflict.
type LogRepository interface {
	Create(ctx context.Context, log *model.WritingLog) error
	GetByID(ctx context.Context, id string) (*model.WritingLog, error)
	// List returns logs matching the filter, newest date first, each with
	// the parent challenge's title attached.
	List(ctx context.Context, filter LogFilter) ([]model.WritingLog, error)
	// GetByDay finds the log for one calendar day of one challenge, or
	// apperror.ErrNotFound if the day has no entry yet.
	GetByDay(ctx context.Context, challengeID, userID, day string) (*model.WritingLog, error)
	Update(ctx context.Context, log *model.WritingLog) error
	Delete(ctx context.Context, id string) error
}

// Pinger reports storage reachability for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}
