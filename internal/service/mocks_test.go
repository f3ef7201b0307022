package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/sakif/wordtrail/internal/apperror"
	"github.com/sakif/wordtrail/internal/model"
	"github.com/sakif/wordtrail/internal/repository"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================
//
// WHAT IS A MOCK?
// A mock is a fake implementation of an interface used in tests.
// Instead of talking to a real database, it stores data in memory.
//
// WHY MOCK?
// 1. SPEED: No database setup, no disk I/O, tests run in microseconds
// 2. ISOLATION: Tests only test the service logic, not the database
// 3. CONTROL: You can simulate errors (database down, connection timeout)
//    that would be hard to trigger with a real database
//
// HOW IT WORKS:
// The mocks implement the same repository interfaces as the sqlite repos.
// The services don't know or care which one they get — this is the power
// of interfaces, swappable implementations.
//
// The two mocks are linked: mockChallengeRepo derives SumLogs, ListByUser
// totals, and DeleteCascade from the logs held by its mockLogRepo, the same
// way the real schema ties the tables together.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type mockLogRepo struct {
	logs   map[string]*model.WritingLog
	nextID int
}

func newMockLogRepo() *mockLogRepo {
	return &mockLogRepo{logs: make(map[string]*model.WritingLog)}
}

var _ repository.LogRepository = (*mockLogRepo)(nil)

func (m *mockLogRepo) Create(_ context.Context, log *model.WritingLog) error {
	day := model.DayOf(log.Date)
	for _, existing := range m.logs {
		if existing.ChallengeID == log.ChallengeID && existing.UserID == log.UserID && existing.Day == day {
			return apperror.Conflict("a writing log for this date already exists")
		}
	}
	m.nextID++
	log.ID = fmt.Sprintf("log-%d", m.nextID)
	log.Day = day
	stored := *log
	m.logs[log.ID] = &stored
	return nil
}

func (m *mockLogRepo) GetByID(_ context.Context, id string) (*model.WritingLog, error) {
	log, ok := m.logs[id]
	if !ok {
		return nil, apperror.NotFound("log", id)
	}
	result := *log
	return &result, nil
}

func (m *mockLogRepo) List(_ context.Context, filter repository.LogFilter) ([]model.WritingLog, error) {
	result := []model.WritingLog{}
	for _, log := range m.logs {
		if log.UserID != filter.UserID {
			continue
		}
		if filter.ChallengeID != "" && log.ChallengeID != filter.ChallengeID {
			continue
		}
		result = append(result, *log)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result, nil
}

func (m *mockLogRepo) GetByDay(_ context.Context, challengeID, userID, day string) (*model.WritingLog, error) {
	for _, log := range m.logs {
		if log.ChallengeID == challengeID && log.UserID == userID && log.Day == day {
			result := *log
			return &result, nil
		}
	}
	return nil, apperror.NotFound("log", day)
}

func (m *mockLogRepo) Update(_ context.Context, log *model.WritingLog) error {
	stored, ok := m.logs[log.ID]
	if !ok {
		return apperror.NotFound("log", log.ID)
	}
	day := model.DayOf(log.Date)
	for id, other := range m.logs {
		if id == log.ID {
			continue
		}
		if other.ChallengeID == stored.ChallengeID && other.UserID == stored.UserID && other.Day == day {
			return apperror.Conflict("a writing log for this date already exists")
		}
	}
	log.Day = day
	updated := *log
	m.logs[log.ID] = &updated
	return nil
}

func (m *mockLogRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.logs[id]; !ok {
		return apperror.NotFound("log", id)
	}
	delete(m.logs, id)
	return nil
}

type mockChallengeRepo struct {
	challenges map[string]*model.Challenge
	logs       *mockLogRepo
	nextID     int
}

func newMockChallengeRepo(logs *mockLogRepo) *mockChallengeRepo {
	return &mockChallengeRepo{
		challenges: make(map[string]*model.Challenge),
		logs:       logs,
	}
}

var _ repository.ChallengeRepository = (*mockChallengeRepo)(nil)

func (m *mockChallengeRepo) Create(_ context.Context, challenge *model.Challenge) error {
	m.nextID++
	challenge.ID = fmt.Sprintf("challenge-%d", m.nextID)
	stored := *challenge
	m.challenges[challenge.ID] = &stored
	return nil
}

func (m *mockChallengeRepo) GetByID(_ context.Context, id string) (*model.Challenge, error) {
	challenge, ok := m.challenges[id]
	if !ok {
		return nil, apperror.NotFound("challenge", id)
	}
	result := *challenge
	return &result, nil
}

func (m *mockChallengeRepo) ListByUser(_ context.Context, userID string) ([]model.Challenge, error) {
	result := []model.Challenge{}
	for _, challenge := range m.challenges {
		if challenge.UserID != userID {
			continue
		}
		c := *challenge
		c.CurrentWordCount = m.sumFor(c.ID)
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (m *mockChallengeRepo) Update(_ context.Context, challenge *model.Challenge) error {
	stored, ok := m.challenges[challenge.ID]
	if !ok {
		return apperror.NotFound("challenge", challenge.ID)
	}
	stored.Title = challenge.Title
	stored.Description = challenge.Description
	stored.TargetWordCount = challenge.TargetWordCount
	stored.StartDate = challenge.StartDate
	stored.EndDate = challenge.EndDate
	return nil
}

func (m *mockChallengeRepo) DeleteCascade(_ context.Context, id string) (int64, error) {
	if _, ok := m.challenges[id]; !ok {
		return 0, apperror.NotFound("challenge", id)
	}
	var deleted int64
	if m.logs != nil {
		for logID, log := range m.logs.logs {
			if log.ChallengeID == id {
				delete(m.logs.logs, logID)
				deleted++
			}
		}
	}
	delete(m.challenges, id)
	return deleted, nil
}

func (m *mockChallengeRepo) AdjustWordCount(_ context.Context, id string, delta int) error {
	challenge, ok := m.challenges[id]
	if !ok {
		return apperror.NotFound("challenge", id)
	}
	challenge.CurrentWordCount += delta
	if challenge.CurrentWordCount < 0 {
		challenge.CurrentWordCount = 0
	}
	return nil
}

func (m *mockChallengeRepo) SumLogs(_ context.Context, id string) (int, error) {
	return m.sumFor(id), nil
}

func (m *mockChallengeRepo) SetWordCount(_ context.Context, id string, total int) error {
	challenge, ok := m.challenges[id]
	if !ok {
		return apperror.NotFound("challenge", id)
	}
	challenge.CurrentWordCount = total
	return nil
}

func (m *mockChallengeRepo) sumFor(challengeID string) int {
	if m.logs == nil {
		return 0
	}
	var total int
	for _, log := range m.logs.logs {
		if log.ChallengeID == challengeID {
			total += log.WordCount
		}
	}
	return total
}
