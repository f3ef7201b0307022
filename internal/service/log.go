package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/wordtrail/internal/apperror"
	"github.com/sakif/wordtrail/internal/model"
	"github.com/sakif/wordtrail/internal/repository"
)

// LogInput carries the mutable writing-log fields. ChallengeID is only
// consulted by the upsert path; update-by-id keeps the log on its original
// challenge.
type LogInput struct {
	ChallengeID string
	Date        time.Time
	WordCount   int
	Notes       string
}

// LogService handles business logic for writing logs, including the
// maintenance of each challenge's denormalized word-count total.
//
// INVARIANT: after any operation in here returns successfully, a
// challenge's current word count equals the sum of its logs' word counts.
// The original version of this app only adjusted the total on the upsert
// path; update-by-id and delete silently drifted it. Here every mutation
// funnels its delta through challenges.AdjustWordCount.
type LogService struct {
	logs       repository.LogRepository
	challenges repository.ChallengeRepository
	logger     *slog.Logger
}

func NewLogService(logs repository.LogRepository, challenges repository.ChallengeRepository, logger *slog.Logger) *LogService {
	return &LogService{
		logs:       logs,
		challenges: challenges,
		logger:     logger,
	}
}

func (in *LogInput) validate() error {
	if in.Date.IsZero() {
		return apperror.ValidationFailed("date", "date is required")
	}
	if in.WordCount < 0 {
		return apperror.ValidationFailed("wordCount", "word count cannot be negative")
	}
	in.Notes = strings.TrimSpace(in.Notes)
	if len(in.Notes) > MaxNoteLength {
		return apperror.ValidationFailed("notes",
			fmt.Sprintf("notes must be %d characters or less", MaxNoteLength))
	}
	return nil
}

// List returns the caller's logs, newest date first, each carrying its
// parent challenge's title. challengeID optionally narrows the listing; it
// is a filter, not an ownership assertion — the user scope already
// guarantees only the caller's rows come back.
func (s *LogService) List(ctx context.Context, userID, challengeID string) ([]model.WritingLog, error) {
	logs, err := s.logs.List(ctx, repository.LogFilter{
		UserID:      userID,
		ChallengeID: challengeID,
	})
	if err != nil {
		s.logger.Error("failed to list writing logs",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing writing logs: %w", err)
	}
	return logs, nil
}

// Upsert records a day's progress: create the day's log if none exists, or
// overwrite the existing one. The bool result is true when a new log was
// created (the handler maps it to 201 vs 200).
//
// Total maintenance:
//   - update: delta = new − old word count, applied to the challenge
//   - create: the full word count is added
//
// The log row is written before the counter is adjusted. A crash between
// the two leaves the counter transiently behind the rows — acceptable,
// because the sum of logs is authoritative and the next challenge update
// recomputes it.
//
// If a concurrent create for the same day wins the race between our
// GetByDay miss and the INSERT, the unique index rejects us and the caller
// gets a Conflict telling them to retry as an edit.
func (s *LogService) Upsert(ctx context.Context, userID string, in LogInput) (*model.WritingLog, bool, error) {
	if in.ChallengeID == "" {
		return nil, false, apperror.ValidationFailed("challengeId", "challenge id is required")
	}
	if err := in.validate(); err != nil {
		return nil, false, err
	}

	challenge, err := s.ownedChallenge(ctx, userID, in.ChallengeID)
	if err != nil {
		return nil, false, err
	}

	day := model.DayOf(in.Date)

	existing, err := s.logs.GetByDay(ctx, challenge.ID, userID, day)
	switch {
	case err == nil:
		// A log for this day exists — overwrite it and apply the delta.
		delta := in.WordCount - existing.WordCount
		existing.Date = in.Date
		existing.WordCount = in.WordCount
		existing.Notes = in.Notes

		if err := s.logs.Update(ctx, existing); err != nil {
			return nil, false, fmt.Errorf("updating writing log: %w", err)
		}
		if delta != 0 {
			if err := s.challenges.AdjustWordCount(ctx, challenge.ID, delta); err != nil {
				return nil, false, fmt.Errorf("adjusting challenge total: %w", err)
			}
		}

		s.logger.Info("writing log updated",
			slog.String("id", existing.ID),
			slog.String("challengeID", challenge.ID),
			slog.String("day", day),
			slog.Int("delta", delta),
		)
		existing.ChallengeTitle = challenge.Title
		return existing, false, nil

	case errors.Is(err, apperror.ErrNotFound):
		// No log for this day yet — create one and add the full count.
		log := &model.WritingLog{
			ChallengeID: challenge.ID,
			UserID:      userID,
			Date:        in.Date,
			WordCount:   in.WordCount,
			Notes:       in.Notes,
		}

		if err := s.logs.Create(ctx, log); err != nil {
			// ErrConflict propagates as-is: a concurrent upsert for the
			// same day beat us to the insert.
			return nil, false, err
		}
		if log.WordCount != 0 {
			if err := s.challenges.AdjustWordCount(ctx, challenge.ID, log.WordCount); err != nil {
				return nil, false, fmt.Errorf("adjusting challenge total: %w", err)
			}
		}

		s.logger.Info("writing log created",
			slog.String("id", log.ID),
			slog.String("challengeID", challenge.ID),
			slog.String("day", day),
			slog.Int("wordCount", log.WordCount),
		)
		log.ChallengeTitle = challenge.Title
		return log, true, nil

	default:
		return nil, false, fmt.Errorf("looking up log for day %s: %w", day, err)
	}
}

// Update overwrites date, word count, and notes of a log by its id.
// Ownership is resolved through the parent challenge. The word-count delta
// is applied to the challenge total, and moving the log onto an occupied
// day surfaces as a Conflict.
func (s *LogService) Update(ctx context.Context, userID, logID string, in LogInput) (*model.WritingLog, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	log, err := s.logs.GetByID(ctx, logID)
	if err != nil {
		return nil, err
	}

	challenge, err := s.ownedChallenge(ctx, userID, log.ChallengeID)
	if err != nil {
		return nil, err
	}

	delta := in.WordCount - log.WordCount
	log.Date = in.Date
	log.WordCount = in.WordCount
	log.Notes = in.Notes

	if err := s.logs.Update(ctx, log); err != nil {
		return nil, err
	}
	if delta != 0 {
		if err := s.challenges.AdjustWordCount(ctx, challenge.ID, delta); err != nil {
			return nil, fmt.Errorf("adjusting challenge total: %w", err)
		}
	}

	s.logger.Info("writing log updated",
		slog.String("id", log.ID),
		slog.String("challengeID", challenge.ID),
		slog.Int("delta", delta),
	)

	log.ChallengeTitle = challenge.Title
	return log, nil
}

// Delete removes a log by its id and decrements the parent challenge's
// total by the log's word count.
func (s *LogService) Delete(ctx context.Context, userID, logID string) error {
	log, err := s.logs.GetByID(ctx, logID)
	if err != nil {
		return err
	}

	challenge, err := s.ownedChallenge(ctx, userID, log.ChallengeID)
	if err != nil {
		return err
	}

	if err := s.logs.Delete(ctx, logID); err != nil {
		return err
	}
	if log.WordCount != 0 {
		if err := s.challenges.AdjustWordCount(ctx, challenge.ID, -log.WordCount); err != nil {
			return fmt.Errorf("adjusting challenge total: %w", err)
		}
	}

	s.logger.Info("writing log deleted",
		slog.String("id", logID),
		slog.String("challengeID", challenge.ID),
		slog.Int("wordCount", log.WordCount),
	)

	return nil
}

// ownedChallenge mirrors ChallengeService.owned: absent → NotFound, wrong
// owner → Forbidden. Duplicated here so the two services stay independently
// constructible.
func (s *LogService) ownedChallenge(ctx context.Context, userID, challengeID string) (*model.Challenge, error) {
	challenge, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge.UserID != userID {
		return nil, apperror.Forbidden("challenge belongs to another user")
	}
	return challenge, nil
}
