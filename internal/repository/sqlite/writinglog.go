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

// compile-time check that *LogRepo implements repository.LogRepository
var _ repository.LogRepository = (*LogRepo)(nil)

// LogRepo is the sqlite-backed writing-log repository.
type LogRepo struct {
	db *DB
}

func NewLogRepo(db *DB) *LogRepo {
	return &LogRepo{db: db}
}

// Create inserts a new writing log. The normalized Day is derived from Date
// here so no caller can insert a row whose day key disagrees with its
// timestamp.
//
// A violation of the (challenge_id, user_id, day) UNIQUE index comes back
// as apperror.ErrConflict: two concurrent creates for the same day raced,
// one won, and this caller should retry as an edit.
func (r *LogRepo) Create(ctx context.Context, log *model.WritingLog) error {
	log.ID = xid.New().String()
	log.Day = model.DayOf(log.Date)

	now := time.Now()
	log.CreatedAt = now
	log.UpdatedAt = now

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO writing_logs (id, challenge_id, user_id, date, day, word_count, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID,
		log.ChallengeID,
		log.UserID,
		log.Date,
		log.Day,
		log.WordCount,
		log.Notes,
		log.CreatedAt,
		log.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("a writing log for this date already exists; edit the existing log or pick a different date")
		}
		return fmt.Errorf("sqlite: creating writing log: %w", err)
	}

	return nil
}

// GetByID retrieves a single log. Like challenges, ownership is resolved by
// the service layer, which needs the row to find the parent challenge.
func (r *LogRepo) GetByID(ctx context.Context, id string) (*model.WritingLog, error) {
	var l model.WritingLog

	err := r.db.conn.QueryRowContext(ctx,
		`SELECT id, challenge_id, user_id, date, day, word_count, notes, created_at, updated_at
		 FROM writing_logs WHERE id = ?`,
		id,
	).Scan(
		&l.ID,
		&l.ChallengeID,
		&l.UserID,
		&l.Date,
		&l.Day,
		&l.WordCount,
		&l.Notes,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("log", id)
		}
		return nil, fmt.Errorf("sqlite: getting log %s: %w", id, err)
	}

	return &l, nil
}

// List returns the user's logs newest date first, each with the parent
// challenge's title attached (read-time join). An optional challenge filter
// narrows the result to one challenge.
func (r *LogRepo) List(ctx context.Context, filter repository.LogFilter) ([]model.WritingLog, error) {
	query := `SELECT l.id, l.challenge_id, l.user_id, l.date, l.day, l.word_count,
	                 l.notes, l.created_at, l.updated_at, c.title
	          FROM writing_logs l
	          JOIN challenges c ON c.id = l.challenge_id
	          WHERE l.user_id = ?`
	args := []any{filter.UserID}

	if filter.ChallengeID != "" {
		query += ` AND l.challenge_id = ?`
		args = append(args, filter.ChallengeID)
	}

	query += ` ORDER BY l.date DESC`

	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing writing logs: %w", err)
	}
	defer rows.Close()

	var logs []model.WritingLog
	for rows.Next() {
		var l model.WritingLog
		if err := rows.Scan(
			&l.ID, &l.ChallengeID, &l.UserID, &l.Date, &l.Day, &l.WordCount,
			&l.Notes, &l.CreatedAt, &l.UpdatedAt, &l.ChallengeTitle,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning log row: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating writing logs: %w", err)
	}

	if logs == nil {
		logs = []model.WritingLog{}
	}
	return logs, nil
}

// GetByDay finds the log for one calendar day of one challenge. The upsert
// path uses this to decide between "create" and "apply a delta to the
// existing entry".
func (r *LogRepo) GetByDay(ctx context.Context, challengeID, userID, day string) (*model.WritingLog, error) {
	var l model.WritingLog

	err := r.db.conn.QueryRowContext(ctx,
		`SELECT id, challenge_id, user_id, date, day, word_count, notes, created_at, updated_at
		 FROM writing_logs
		 WHERE challenge_id = ? AND user_id = ? AND day = ?`,
		challengeID, userID, day,
	).Scan(
		&l.ID,
		&l.ChallengeID,
		&l.UserID,
		&l.Date,
		&l.Day,
		&l.WordCount,
		&l.Notes,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("log", day)
		}
		return nil, fmt.Errorf("sqlite: getting log for day %s: %w", day, err)
	}

	return &l, nil
}

// Update overwrites date, day, word count, and notes. Moving the log onto a
// day that already has an entry trips the UNIQUE index → ErrConflict.
func (r *LogRepo) Update(ctx context.Context, log *model.WritingLog) error {
	log.Day = model.DayOf(log.Date)
	log.UpdatedAt = time.Now()

	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE writing_logs
		 SET date = ?, day = ?, word_count = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		log.Date,
		log.Day,
		log.WordCount,
		log.Notes,
		log.UpdatedAt,
		log.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("a writing log for this date already exists; edit the existing log or pick a different date")
		}
		return fmt.Errorf("sqlite: updating log %s: %w", log.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("log", log.ID)
	}

	return nil
}

// Delete removes a log by ID.
func (r *LogRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.conn.ExecContext(ctx,
		`DELETE FROM writing_logs WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting log %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("log", id)
	}

	return nil
}
