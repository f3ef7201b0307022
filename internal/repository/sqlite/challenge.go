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

// compile-time check that *ChallengeRepo implements repository.ChallengeRepository
var _ repository.ChallengeRepository = (*ChallengeRepo)(nil)

// ChallengeRepo is the sqlite-backed challenge repository.
type ChallengeRepo struct {
	db *DB
}

func NewChallengeRepo(db *DB) *ChallengeRepo {
	return &ChallengeRepo{db: db}
}

const challengeColumns = `id, user_id, title, description, target_word_count,
	start_date, end_date, current_word_count, created_at, updated_at`

// Create inserts a new challenge. The ID (xid — sortable by creation time)
// and timestamps are generated here; CurrentWordCount starts at whatever
// the caller set, which for a new challenge is zero.
func (r *ChallengeRepo) Create(ctx context.Context, challenge *model.Challenge) error {
	challenge.ID = xid.New().String()

	now := time.Now()
	challenge.CreatedAt = now
	challenge.UpdatedAt = now

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO challenges (`+challengeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		challenge.ID,
		challenge.UserID,
		challenge.Title,
		challenge.Description,
		challenge.TargetWordCount,
		challenge.StartDate,
		challenge.EndDate,
		challenge.CurrentWordCount,
		challenge.CreatedAt,
		challenge.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating challenge: %w", err)
	}

	return nil
}

// GetByID retrieves a single challenge. Ownership is NOT checked here — the
// service layer distinguishes "absent" (404) from "not yours" (403), so it
// needs the row either way.
func (r *ChallengeRepo) GetByID(ctx context.Context, id string) (*model.Challenge, error) {
	var c model.Challenge

	err := r.db.conn.QueryRowContext(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = ?`,
		id,
	).Scan(
		&c.ID,
		&c.UserID,
		&c.Title,
		&c.Description,
		&c.TargetWordCount,
		&c.StartDate,
		&c.EndDate,
		&c.CurrentWordCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("challenge", id)
		}
		return nil, fmt.Errorf("sqlite: getting challenge %s: %w", id, err)
	}

	return &c, nil
}

// ListByUser returns the user's challenges newest-first, with each
// CurrentWordCount computed from the log rows in the same query.
//
// The denormalized column and this aggregate can only agree (every log
// mutation adjusts the column), but summing here means a listing is correct
// even if a crash between a log write and its counter adjustment left the
// column transiently stale.
func (r *ChallengeRepo) ListByUser(ctx context.Context, userID string) ([]model.Challenge, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT c.id, c.user_id, c.title, c.description, c.target_word_count,
		        c.start_date, c.end_date, COALESCE(SUM(l.word_count), 0),
		        c.created_at, c.updated_at
		 FROM challenges c
		 LEFT JOIN writing_logs l ON l.challenge_id = c.id
		 WHERE c.user_id = ?
		 GROUP BY c.id
		 ORDER BY c.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing challenges: %w", err)
	}
	defer rows.Close()

	var challenges []model.Challenge
	for rows.Next() {
		var c model.Challenge
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Title, &c.Description, &c.TargetWordCount,
			&c.StartDate, &c.EndDate, &c.CurrentWordCount,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning challenge row: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating challenges: %w", err)
	}

	if challenges == nil {
		challenges = []model.Challenge{}
	}
	return challenges, nil
}

// Update replaces the mutable fields. ID, owner, the accumulated total, and
// created_at stay untouched.
func (r *ChallengeRepo) Update(ctx context.Context, challenge *model.Challenge) error {
	challenge.UpdatedAt = time.Now()

	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE challenges
		 SET title = ?, description = ?, target_word_count = ?,
		     start_date = ?, end_date = ?, updated_at = ?
		 WHERE id = ?`,
		challenge.Title,
		challenge.Description,
		challenge.TargetWordCount,
		challenge.StartDate,
		challenge.EndDate,
		challenge.UpdatedAt,
		challenge.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating challenge %s: %w", challenge.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("challenge", challenge.ID)
	}

	return nil
}

// DeleteCascade removes all of the challenge's logs and then the challenge
// itself, inside one transaction: a failure partway through rolls both back,
// so no orphaned logs can ever be listed.
func (r *ChallengeRepo) DeleteCascade(ctx context.Context, id string) (int64, error) {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: beginning delete transaction: %w", err)
	}
	// Rollback is a no-op after Commit succeeds.
	defer tx.Rollback()

	logsResult, err := tx.ExecContext(ctx,
		`DELETE FROM writing_logs WHERE challenge_id = ?`, id,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting logs for challenge %s: %w", id, err)
	}
	logsDeleted, err := logsResult.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM challenges WHERE id = ?`, id,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting challenge %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return 0, apperror.NotFound("challenge", id)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: committing delete of challenge %s: %w", id, err)
	}

	return logsDeleted, nil
}

// AdjustWordCount adds delta (may be negative) to the denormalized total.
// MAX(0, ...) guards the non-negativity invariant against a double-applied
// decrement; the total is always recoverable by summing logs.
func (r *ChallengeRepo) AdjustWordCount(ctx context.Context, id string, delta int) error {
	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE challenges
		 SET current_word_count = MAX(0, current_word_count + ?), updated_at = ?
		 WHERE id = ?`,
		delta, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adjusting word count for challenge %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("challenge", id)
	}

	return nil
}

// SumLogs recomputes the challenge's total from its log rows.
func (r *ChallengeRepo) SumLogs(ctx context.Context, id string) (int, error) {
	var total int
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(word_count), 0) FROM writing_logs WHERE challenge_id = ?`,
		id,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sqlite: summing logs for challenge %s: %w", id, err)
	}
	return total, nil
}

// SetWordCount overwrites the denormalized total with a recomputed sum.
func (r *ChallengeRepo) SetWordCount(ctx context.Context, id string, total int) error {
	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE challenges SET current_word_count = ?, updated_at = ? WHERE id = ?`,
		total, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting word count for challenge %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("challenge", id)
	}

	return nil
}
