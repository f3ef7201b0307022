package model

import "time"

// DayFormat is the layout for the normalized calendar-day key.
const DayFormat = "2006-01-02"

// WritingLog is one calendar day's progress against a challenge.
//
// Date keeps whatever timestamp the client submitted; Day is the normalized
// YYYY-MM-DD key derived from it. Uniqueness is enforced over
// (challenge, user, day), so at most one log exists per calendar day no
// matter what time-of-day the client sent.
//
// UserID is redundant with the challenge's owner — it's kept on the row so
// "all logs for this user" is a single indexed filter instead of a join.
type WritingLog struct {
	ID          string    `json:"id"          db:"id"`
	ChallengeID string    `json:"challengeId" db:"challenge_id"`
	UserID      string    `json:"userId"      db:"user_id"`
	Date        time.Time `json:"date"        db:"date"`
	Day         string    `json:"day"         db:"day"`
	WordCount   int       `json:"wordCount"   db:"word_count"` // >= 0
	Notes       string    `json:"notes"       db:"notes"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`

	// ChallengeTitle is attached by list queries (read-time join); it is
	// not a column on the writing_logs table.
	ChallengeTitle string `json:"challengeTitle,omitempty" db:"-"`
}

// DayOf normalizes a timestamp to its calendar-day key.
func DayOf(t time.Time) string {
	return t.Format(DayFormat)
}
