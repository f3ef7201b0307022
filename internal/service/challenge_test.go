package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/wordtrail/internal/apperror"
	"github.com/sakif/wordtrail/internal/model"
)

func validChallengeInput() ChallengeInput {
	return ChallengeInput{
		Title:           "NaNoWriMo 2025",
		Description:     "50k words in November",
		TargetWordCount: 50000,
		StartDate:       time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
	}
}

func newChallengeService(logs *mockLogRepo) (*ChallengeService, *mockChallengeRepo) {
	repo := newMockChallengeRepo(logs)
	return NewChallengeService(repo, testLogger()), repo
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestChallengeServiceCreate(t *testing.T) {
	svc, _ := newChallengeService(nil)

	challenge, err := svc.Create(context.Background(), "user-1", validChallengeInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if challenge.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if challenge.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", challenge.UserID, "user-1")
	}
	if challenge.CurrentWordCount != 0 {
		t.Errorf("CurrentWordCount = %d, want 0", challenge.CurrentWordCount)
	}
}

func TestChallengeServiceCreate_TrimsWhitespace(t *testing.T) {
	svc, _ := newChallengeService(nil)

	in := validChallengeInput()
	in.Title = "  Spaced out  "
	challenge, err := svc.Create(context.Background(), "user-1", in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if challenge.Title != "Spaced out" {
		t.Errorf("Title = %q, want trimmed %q", challenge.Title, "Spaced out")
	}
}

func TestChallengeServiceCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ChallengeInput)
	}{
		{"empty title", func(in *ChallengeInput) { in.Title = "   " }},
		{"title too long", func(in *ChallengeInput) { in.Title = strings.Repeat("x", MaxTitleLength+1) }},
		{"empty description", func(in *ChallengeInput) { in.Description = "" }},
		{"description too long", func(in *ChallengeInput) { in.Description = strings.Repeat("x", MaxDescriptionLength+1) }},
		{"zero target", func(in *ChallengeInput) { in.TargetWordCount = 0 }},
		{"negative target", func(in *ChallengeInput) { in.TargetWordCount = -100 }},
		{"missing start date", func(in *ChallengeInput) { in.StartDate = time.Time{} }},
		{"missing end date", func(in *ChallengeInput) { in.EndDate = time.Time{} }},
		{"end before start", func(in *ChallengeInput) {
			in.StartDate, in.EndDate = in.EndDate, in.StartDate
		}},
		{"end equals start", func(in *ChallengeInput) { in.EndDate = in.StartDate }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newChallengeService(nil)
			in := validChallengeInput()
			tt.modify(&in)

			_, err := svc.Create(context.Background(), "user-1", in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestChallengeServiceList(t *testing.T) {
	svc, _ := newChallengeService(nil)

	if _, err := svc.Create(context.Background(), "user-1", validChallengeInput()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(context.Background(), "user-2", validChallengeInput()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	challenges, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(challenges) != 1 {
		t.Errorf("List() returned %d challenges, want 1 (only the caller's)", len(challenges))
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestChallengeServiceUpdate(t *testing.T) {
	svc, _ := newChallengeService(newMockLogRepo())

	created, err := svc.Create(context.Background(), "user-1", validChallengeInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	in := validChallengeInput()
	in.Title = "Renamed"
	updated, err := svc.Update(context.Background(), "user-1", created.ID, in)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("Title = %q, want %q", updated.Title, "Renamed")
	}
}

func TestChallengeServiceUpdate_RecomputesTotal(t *testing.T) {
	logs := newMockLogRepo()
	svc, repo := newChallengeService(logs)

	created, err := svc.Create(context.Background(), "user-1", validChallengeInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Insert log rows directly and leave the denormalized column stale, as
	// a crash between a log write and its counter adjustment would.
	logs.Create(context.Background(), &model.WritingLog{
		ChallengeID: created.ID, UserID: "user-1",
		Date: time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC), WordCount: 1500,
	})
	logs.Create(context.Background(), &model.WritingLog{
		ChallengeID: created.ID, UserID: "user-1",
		Date: time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC), WordCount: 2000,
	})

	updated, err := svc.Update(context.Background(), "user-1", created.ID, validChallengeInput())
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.CurrentWordCount != 3500 {
		t.Errorf("CurrentWordCount = %d, want recomputed 3500", updated.CurrentWordCount)
	}

	// The self-heal must also have repaired the stored column.
	stored, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.CurrentWordCount != 3500 {
		t.Errorf("stored CurrentWordCount = %d, want 3500", stored.CurrentWordCount)
	}
}

func TestChallengeServiceUpdate_NotFound(t *testing.T) {
	svc, _ := newChallengeService(nil)

	_, err := svc.Update(context.Background(), "user-1", "nonexistent", validChallengeInput())
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestChallengeServiceUpdate_Forbidden(t *testing.T) {
	svc, _ := newChallengeService(nil)

	created, err := svc.Create(context.Background(), "owner", validChallengeInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = svc.Update(context.Background(), "intruder", created.ID, validChallengeInput())
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Update() error = %v, want ErrForbidden", err)
	}
}

func TestChallengeServiceUpdate_InvalidInput(t *testing.T) {
	svc, _ := newChallengeService(nil)

	created, err := svc.Create(context.Background(), "user-1", validChallengeInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	in := validChallengeInput()
	in.Title = ""
	_, err = svc.Update(context.Background(), "user-1", created.ID, in)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Update() error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestChallengeServiceDelete(t *testing.T) {
	logs := newMockLogRepo()
	svc, repo := newChallengeService(logs)

	created, err := svc.Create(context.Background(), "user-1", validChallengeInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	logs.Create(context.Background(), &model.WritingLog{
		ChallengeID: created.ID, UserID: "user-1",
		Date: time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC), WordCount: 1500,
	})

	if err := svc.Delete(context.Background(), "user-1", created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := repo.GetByID(context.Background(), created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("challenge still present after delete, err = %v", err)
	}
	if len(logs.logs) != 0 {
		t.Errorf("%d logs remain after cascade delete, want 0", len(logs.logs))
	}
}

func TestChallengeServiceDelete_NotFound(t *testing.T) {
	svc, _ := newChallengeService(nil)

	err := svc.Delete(context.Background(), "user-1", "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestChallengeServiceDelete_Forbidden(t *testing.T) {
	svc, _ := newChallengeService(nil)

	created, err := svc.Create(context.Background(), "owner", validChallengeInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err = svc.Delete(context.Background(), "intruder", created.ID)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Delete() error = %v, want ErrForbidden", err)
	}
}
