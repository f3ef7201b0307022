// Package service contains the business logic layer of the application.
//
// The layering follows the usual three-layer split:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces ownership, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// Every operation takes the RESOLVED user id as an explicit parameter — the
// authorization gate (session → user record) happens once at the handler
// boundary, and nothing in here reads ambient session state. That keeps
// ownership rules testable with plain function calls.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/wordtrail/internal/apperror"
	"github.com/sakif/wordtrail/internal/model"
	"github.com/sakif/wordtrail/internal/repository"
)

// Validation constants.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxNoteLength        = 5000
)

// ChallengeInput carries the mutable challenge fields for create and
// update. Both operations validate the full set — update is a replace, not
// a patch.
type ChallengeInput struct {
	Title           string
	Description     string
	TargetWordCount int
	StartDate       time.Time
	EndDate         time.Time
}

// ChallengeService handles business logic for challenges.
type ChallengeService struct {
	challenges repository.ChallengeRepository
	logger     *slog.Logger
}

func NewChallengeService(challenges repository.ChallengeRepository, logger *slog.Logger) *ChallengeService {
	return &ChallengeService{
		challenges: challenges,
		logger:     logger,
	}
}

// validate enforces the challenge constraints shared by create and update.
func (in *ChallengeInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	if in.Title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if len(in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if in.Description == "" {
		return apperror.ValidationFailed("description", "description is required")
	}
	if len(in.Description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if in.TargetWordCount <= 0 {
		return apperror.ValidationFailed("targetWordCount", "target word count must be a positive integer")
	}
	if in.StartDate.IsZero() {
		return apperror.ValidationFailed("startDate", "start date is required")
	}
	if in.EndDate.IsZero() {
		return apperror.ValidationFailed("endDate", "end date is required")
	}
	if !in.EndDate.After(in.StartDate) {
		return apperror.ValidationFailed("endDate", "end date must be after start date")
	}
	return nil
}

// owned fetches a challenge and checks the caller owns it.
//
// The two failure modes stay distinct on purpose: an absent challenge is
// NotFound (404), an existing challenge owned by someone else is Forbidden
// (403). Every challenge- and log-mutating path funnels through this check.
func (s *ChallengeService) owned(ctx context.Context, userID, challengeID string) (*model.Challenge, error) {
	challenge, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge.UserID != userID {
		return nil, apperror.Forbidden("challenge belongs to another user")
	}
	return challenge, nil
}

// List returns the caller's challenges, newest first, each annotated with
// its current word-count total.
func (s *ChallengeService) List(ctx context.Context, userID string) ([]model.Challenge, error) {
	challenges, err := s.challenges.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list challenges",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing challenges: %w", err)
	}
	return challenges, nil
}

// Create validates and persists a new challenge owned by the caller, with
// the running total initialized to zero.
func (s *ChallengeService) Create(ctx context.Context, userID string, in ChallengeInput) (*model.Challenge, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	challenge := &model.Challenge{
		UserID:           userID,
		Title:            in.Title,
		Description:      in.Description,
		TargetWordCount:  in.TargetWordCount,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		CurrentWordCount: 0,
	}

	if err := s.challenges.Create(ctx, challenge); err != nil {
		s.logger.Error("failed to create challenge",
			slog.String("userID", userID),
			slog.String("title", in.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating challenge: %w", err)
	}

	s.logger.Info("challenge created",
		slog.String("id", challenge.ID),
		slog.String("userID", userID),
		slog.String("title", challenge.Title),
	)

	return challenge, nil
}

// Update replaces the mutable fields of a challenge the caller owns and
// returns the record with its total recomputed from the log rows.
//
// Writing the recomputed sum back to the denormalized column makes update a
// self-healing path: if a crash ever left the counter out of step with the
// logs, the next edit squares it.
func (s *ChallengeService) Update(ctx context.Context, userID, challengeID string, in ChallengeInput) (*model.Challenge, error) {
	challenge, err := s.owned(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}

	if err := in.validate(); err != nil {
		return nil, err
	}

	challenge.Title = in.Title
	challenge.Description = in.Description
	challenge.TargetWordCount = in.TargetWordCount
	challenge.StartDate = in.StartDate
	challenge.EndDate = in.EndDate

	if err := s.challenges.Update(ctx, challenge); err != nil {
		s.logger.Error("failed to update challenge",
			slog.String("id", challengeID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating challenge: %w", err)
	}

	total, err := s.challenges.SumLogs(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("recomputing word count: %w", err)
	}
	if total != challenge.CurrentWordCount {
		if err := s.challenges.SetWordCount(ctx, challengeID, total); err != nil {
			return nil, fmt.Errorf("storing recomputed word count: %w", err)
		}
	}
	challenge.CurrentWordCount = total

	s.logger.Info("challenge updated",
		slog.String("id", challenge.ID),
		slog.String("title", challenge.Title),
	)

	return challenge, nil
}

// Delete removes a challenge the caller owns together with all of its
// writing logs. The repository does both inside one transaction, so a
// partial failure can't leave orphaned logs behind.
func (s *ChallengeService) Delete(ctx context.Context, userID, challengeID string) error {
	if _, err := s.owned(ctx, userID, challengeID); err != nil {
		return err
	}

	logsDeleted, err := s.challenges.DeleteCascade(ctx, challengeID)
	if err != nil {
		s.logger.Error("failed to delete challenge",
			slog.String("id", challengeID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting challenge: %w", err)
	}

	s.logger.Info("challenge deleted",
		slog.String("id", challengeID),
		slog.Int64("logsDeleted", logsDeleted),
	)

	return nil
}
