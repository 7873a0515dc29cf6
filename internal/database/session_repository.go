package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/lexidrill/pkg/models"
)

// SessionRepository handles database operations for practice sessions
// and their answers. Both tables are append-only audit logs; nothing in
// the scheduling path depends on them.
type SessionRepository struct{}

// NewSessionRepository creates a new repository instance
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{}
}

// CreateSession inserts a new open session.
func (r *SessionRepository) CreateSession(ctx context.Context, s *models.PracticeSession) error {
	_, err := DB.ExecContext(ctx, `
		INSERT INTO practice_sessions (id, learner_id, enrollment_id, mode, started_at)
		VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.LearnerID, s.EnrollmentID, s.Mode, s.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create practice session: %w", err)
	}
	return nil
}

// GetSession returns one session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*models.PracticeSession, error) {
	var s models.PracticeSession
	err := DB.GetContext(ctx, &s, "SELECT * FROM practice_sessions WHERE id = $1", sessionID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// AppendAnswer records a single answer. Answers are never updated.
func (r *SessionRepository) AppendAnswer(ctx context.Context, a *models.PracticeAnswer) error {
	_, err := DB.ExecContext(ctx, `
		INSERT INTO practice_answers (session_id, item_id, is_correct, time_spent_seconds, answer_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.SessionID, a.ItemID, a.IsCorrect, a.TimeSpentSeconds, a.AnswerText, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append practice answer: %w", err)
	}
	return nil
}

// GetAnswers returns all answers recorded for a session in insertion
// order.
func (r *SessionRepository) GetAnswers(ctx context.Context, sessionID string) ([]models.PracticeAnswer, error) {
	var answers []models.PracticeAnswer
	err := DB.SelectContext(ctx, &answers,
		"SELECT * FROM practice_answers WHERE session_id = $1 ORDER BY id", sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get practice answers: %w", err)
	}
	return answers, nil
}

// CompleteSession stamps completedAt and writes the aggregate counters
// derived from the session's answers. Completing an already-closed
// session is a no-op.
func (r *SessionRepository) CompleteSession(ctx context.Context, sessionID string, completedAt time.Time) error {
	// Aggregation and the close run in one transaction so an answer
	// appended in between cannot fall out of the counters.
	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	var answers []models.PracticeAnswer
	err = tx.SelectContext(ctx, &answers,
		"SELECT * FROM practice_answers WHERE session_id = $1 ORDER BY id", sessionID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to get practice answers: %w", err)
	}

	correct := 0
	totalTime := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
		totalTime += a.TimeSpentSeconds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE practice_sessions SET
			words_practiced = $1,
			correct_count = $2,
			total_time_seconds = $3,
			completed_at = $4
		WHERE id = $5 AND completed_at IS NULL`,
		len(answers), correct, totalTime, completedAt, sessionID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to complete practice session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetStaleOpenSessions returns IDs of sessions started before cutoff
// that were never completed.
func (r *SessionRepository) GetStaleOpenSessions(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	err := DB.SelectContext(ctx, &ids,
		"SELECT id FROM practice_sessions WHERE completed_at IS NULL AND started_at < $1", cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get stale sessions: %w", err)
	}
	return ids, nil
}

// GetLearnerStatistics returns aggregate practice numbers for one
// learner across all their sessions.
func (r *SessionRepository) GetLearnerStatistics(ctx context.Context, learnerID int64) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var sessionCount int
	err := DB.GetContext(ctx, &sessionCount,
		"SELECT COUNT(*) FROM practice_sessions WHERE learner_id = $1", learnerID)
	if err != nil {
		return nil, err
	}
	stats["sessions"] = sessionCount

	var wordsPracticed, correct int
	err = DB.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(words_practiced), 0), COALESCE(SUM(correct_count), 0)
		FROM practice_sessions WHERE learner_id = $1 AND completed_at IS NOT NULL`,
		learnerID).Scan(&wordsPracticed, &correct)
	if err != nil {
		return nil, err
	}
	stats["words_practiced"] = wordsPracticed
	stats["correct"] = correct

	return stats, nil
}
