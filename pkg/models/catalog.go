package models

import "time"

// Assignment is a unit of content a learner can be enrolled in.
type Assignment struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Item is one practice item inside an assignment.
type Item struct {
	ID           int64     `json:"id" db:"id"`
	AssignmentID int64     `json:"assignment_id" db:"assignment_id"`
	Term         string    `json:"term" db:"term"`
	Translation  string    `json:"translation" db:"translation"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Enrollment links a learner to one assignment instance. Progress
// records belong to the enrollment and are removed with it.
type Enrollment struct {
	ID            int64     `json:"id" db:"id"`
	LearnerID     int64     `json:"learner_id" db:"learner_id"`
	AssignmentID  int64     `json:"assignment_id" db:"assignment_id"`
	TargetMastery float64   `json:"target_mastery" db:"target_mastery"` // 0 means "use the engine default"
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
