package model

import "time"

// Challenge is a word-count goal with a date window, owned by one user.
//
// CurrentWordCount is a DENORMALIZED running total: it always equals the sum
// of WordCount over the challenge's writing logs. Every log mutation path
// adjusts it (see service.LogService), so reads never have to re-sum.
// Listing recomputes the sum anyway via an aggregate join — the two sources
// can only agree while the invariant holds.
type Challenge struct {
	ID               string    `json:"id"               db:"id"`
	UserID           string    `json:"userId"           db:"user_id"`
	Title            string    `json:"title"            db:"title"`
	Description      string    `json:"description"      db:"description"`
	TargetWordCount  int       `json:"targetWordCount"  db:"target_word_count"`
	StartDate        time.Time `json:"startDate"        db:"start_date"`
	EndDate          time.Time `json:"endDate"          db:"end_date"` // strictly after StartDate
	CurrentWordCount int       `json:"currentWordCount" db:"current_word_count"`
	CreatedAt        time.Time `json:"createdAt"        db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt"        db:"updated_at"`
}
