package models

import "time"

// PracticeSession is an audit record of one practice run. It references
// progress records but never owns them.
type PracticeSession struct {
	ID               string     `json:"id" db:"id"`
	LearnerID        int64      `json:"learner_id" db:"learner_id"`
	EnrollmentID     int64      `json:"enrollment_id" db:"enrollment_id"`
	Mode             string     `json:"mode" db:"mode"` // e.g. "flashcards", "typing", "listening"
	WordsPracticed   int        `json:"words_practiced" db:"words_practiced"`
	CorrectCount     int        `json:"correct_count" db:"correct_count"`
	TotalTimeSeconds int        `json:"total_time_seconds" db:"total_time_seconds"`
	StartedAt        time.Time  `json:"started_at" db:"started_at"`
	CompletedAt      *time.Time `json:"completed_at" db:"completed_at"` // nil while the session is open
}

// PracticeAnswer is a single answer inside a session. Append-only,
// never updated.
type PracticeAnswer struct {
	ID               int64     `json:"id" db:"id"`
	SessionID        string    `json:"session_id" db:"session_id"`
	ItemID           int64     `json:"item_id" db:"item_id"`
	IsCorrect        bool      `json:"is_correct" db:"is_correct"`
	TimeSpentSeconds int       `json:"time_spent_seconds" db:"time_spent_seconds"`
	AnswerText       string    `json:"answer_text" db:"answer_text"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
