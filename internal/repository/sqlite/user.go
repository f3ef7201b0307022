package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/wordtrail/internal/apperror"
	"github.com/sakif/wordtrail/internal/model"
	"github.com/sakif/wordtrail/internal/repository"
)

// compile-time check that *UserRepo implements repository.UserRepository
var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo is the sqlite-backed user repository. It shares the DB's single
// connection pool with the other repos.
type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Upsert inserts or refreshes a user, keyed by email.
//
// Email is the identity correlation key: the OAuth provider vouches for it,
// and the session resolves accounts by it. If a row with this email already
// exists we KEEP its internal ID and refresh the profile fields (name,
// avatar, GitHub id can all change on the provider side). Otherwise we
// generate an ID and insert.
//
// This is the only code path that ever writes a user row.
func (r *UserRepo) Upsert(ctx context.Context, user *model.User) error {
	var existing model.User
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT id, created_at FROM users WHERE email = ?`, user.Email,
	).Scan(&existing.ID, &existing.CreatedAt)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by email %s: %w", user.Email, err)
	}

	if existing.ID != "" {
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		user.UpdatedAt = time.Now()
		_, err = r.db.conn.ExecContext(ctx,
			`UPDATE users SET github_id = ?, name = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			user.GitHubID,
			user.Name,
			user.AvatarURL,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = r.db.conn.ExecContext(ctx,
		`INSERT INTO users (id, github_id, name, email, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.GitHubID,
		user.Name,
		user.Email,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Two first sign-ins racing on the same email — rare, and the
			// caller just retries the login.
			return apperror.Conflict("account already exists for this email")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getUser(ctx, `WHERE id = ?`, id)
}

// GetByEmail retrieves a user by the session's email claim. This is the
// authorization gate's lookup — a valid session whose email has no row is a
// server-side anomaly surfaced as NotFound.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx, `WHERE email = ?`, email)
}

func (r *UserRepo) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User

	err := r.db.conn.QueryRowContext(ctx,
		`SELECT id, github_id, name, email, avatar_url, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID,
		&u.GitHubID,
		&u.Name,
		&u.Email,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user %v: %w", arg, err)
	}

	return &u, nil
}
