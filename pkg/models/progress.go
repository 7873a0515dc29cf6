package models

import "time"

// ProgressRecord tracks one learner-enrollment's retention of a single
// item. Exactly one record exists per (enrollment_id, item_id) pair; it
// is created lazily on the first answer and only the update engine
// mutates it afterwards.
type ProgressRecord struct {
	ID              int64      `json:"id" db:"id"`
	EnrollmentID    int64      `json:"enrollment_id" db:"enrollment_id"`
	ItemID          int64      `json:"item_id" db:"item_id"`
	MemoryStrength  float64    `json:"memory_strength" db:"memory_strength"`   // 0..1, 4 decimal places
	EasinessFactor  float64    `json:"easiness_factor" db:"easiness_factor"`   // >= 1.3, 2 decimal places
	IntervalDays    float64    `json:"interval_days" db:"interval_days"`       // days until the next scheduled review
	RepetitionCount int        `json:"repetition_count" db:"repetition_count"` // consecutive correct answers since last miss
	CorrectCount    int        `json:"correct_count" db:"correct_count"`
	IncorrectCount  int        `json:"incorrect_count" db:"incorrect_count"`
	TotalAttempts   int        `json:"total_attempts" db:"total_attempts"`
	AccuracyRate    float64    `json:"accuracy_rate" db:"accuracy_rate"`
	LastReviewedAt  *time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	NextReviewAt    *time.Time `json:"next_review_at" db:"next_review_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}
