package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/lexidrill/pkg/models"
)

// SessionLog is the append-only store behind the Recorder.
type SessionLog interface {
	CreateSession(ctx context.Context, s *models.PracticeSession) error
	AppendAnswer(ctx context.Context, a *models.PracticeAnswer) error
	CompleteSession(ctx context.Context, sessionID string, completedAt time.Time) error
}

// Recorder keeps the audit trail of practice sessions and answers.
// Audit writes are best-effort: a failed append is logged and
// swallowed, never blocking or rolling back a progress update.
type Recorder struct {
	sessions SessionLog
	clock    Clock
	log      *zap.Logger
}

// NewRecorder creates a recorder over the given session log.
func NewRecorder(sessions SessionLog, clock Clock, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{sessions: sessions, clock: clock, log: log}
}

// StartSession opens a practice session for a learner.
func (r *Recorder) StartSession(ctx context.Context, learnerID, enrollmentID int64, mode string) (*models.PracticeSession, error) {
	s := &models.PracticeSession{
		ID:           uuid.NewString(),
		LearnerID:    learnerID,
		EnrollmentID: enrollmentID,
		Mode:         mode,
		StartedAt:    r.clock.Now(),
	}
	if err := r.sessions.CreateSession(ctx, s); err != nil {
		return nil, &PersistenceError{Op: "start session", Err: err}
	}
	return s, nil
}

// LogAnswer appends one answer to the audit trail. Errors are logged
// and swallowed.
func (r *Recorder) LogAnswer(ctx context.Context, sessionID string, itemID int64, correct bool, timeSpentSeconds int, answerText string) {
	if sessionID == "" {
		return
	}
	a := &models.PracticeAnswer{
		SessionID:        sessionID,
		ItemID:           itemID,
		IsCorrect:        correct,
		TimeSpentSeconds: timeSpentSeconds,
		AnswerText:       answerText,
		CreatedAt:        r.clock.Now(),
	}
	if err := r.sessions.AppendAnswer(ctx, a); err != nil {
		r.log.Warn("audit write failed for practice answer",
			zap.String("session_id", sessionID),
			zap.Int64("item_id", itemID),
			zap.Error(err))
	}
}

// CompleteSession closes a session; the store derives the aggregate
// counters from the appended answers.
func (r *Recorder) CompleteSession(ctx context.Context, sessionID string) error {
	if err := r.sessions.CompleteSession(ctx, sessionID, r.clock.Now()); err != nil {
		return &PersistenceError{Op: "complete session", Err: err}
	}
	return nil
}
