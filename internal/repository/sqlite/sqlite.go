// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works.
//
// SQLite is an embedded database: a single file, no server process. For a
// single-instance tracker that's exactly the right amount of
// infrastructure, and ":memory:" gives tests a fresh isolated database for
// free.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	sqlitedrv "modernc.org/sqlite"
)

// SQLite extended result codes for uniqueness violations.
// 19 is the generic SQLITE_CONSTRAINT; 1555 and 2067 are the extended
// primary-key and unique-index variants.
const (
	codeConstraint           = 19
	codeConstraintPrimaryKey = 1555
	codeConstraintUnique     = 2067
)

// DB wraps a sql.DB connection pool. The per-entity repos (UserRepo,
// ChallengeRepo, LogRepo) share it; DB itself only exposes lifecycle and
// the health-check Ping.
type DB struct {
	conn *sql.DB
}

// New creates a SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/wordtrail.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open doesn't actually connect; Ping surfaces a bad path or
	// permissions problem immediately instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// without it SQLite locks the whole file per write.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite for backwards
	// compatibility. The users → challenges → writing_logs chain needs them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent — safe to run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			github_id  INTEGER NOT NULL DEFAULT 0,
			name       TEXT NOT NULL DEFAULT '',
			email      TEXT NOT NULL UNIQUE,
			avatar_url TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS challenges (
			id                 TEXT PRIMARY KEY,
			user_id            TEXT NOT NULL REFERENCES users(id),
			title              TEXT NOT NULL,
			description        TEXT NOT NULL DEFAULT '',
			target_word_count  INTEGER NOT NULL,
			start_date         DATETIME NOT NULL,
			end_date           DATETIME NOT NULL,
			current_word_count INTEGER NOT NULL DEFAULT 0,
			created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_challenges_user_id ON challenges(user_id);
		CREATE INDEX IF NOT EXISTS idx_challenges_created_at ON challenges(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating challenges table: %w", err)
	}

	// The UNIQUE index over (challenge_id, user_id, day) enforces
	// one-log-per-day. `day` is the normalized YYYY-MM-DD key, computed in
	// Go from the submitted timestamp, so time-of-day can never split a
	// calendar day into two rows. This index is also the sole concurrency
	// backstop: two racing creates for the same day — one wins, the other
	// gets a constraint error surfaced as a 409.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS writing_logs (
			id           TEXT PRIMARY KEY,
			challenge_id TEXT NOT NULL REFERENCES challenges(id),
			user_id      TEXT NOT NULL REFERENCES users(id),
			date         DATETIME NOT NULL,
			day          TEXT NOT NULL,
			word_count   INTEGER NOT NULL,
			notes        TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (challenge_id, user_id, day)
		);
		CREATE INDEX IF NOT EXISTS idx_writing_logs_user_id ON writing_logs(user_id);
		CREATE INDEX IF NOT EXISTS idx_writing_logs_date ON writing_logs(date);
	`)
	if err != nil {
		return fmt.Errorf("creating writing_logs table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite uniqueness-constraint
// failure. We check the driver's typed error first and fall back to the
// message, which modernc.org/sqlite formats as
// "constraint failed: UNIQUE constraint failed: ...".
func isUniqueViolation(err error) bool {
	var de *sqlitedrv.Error
	if errors.As(err, &de) {
		switch de.Code() {
		case codeConstraint, codeConstraintPrimaryKey, codeConstraintUnique:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
