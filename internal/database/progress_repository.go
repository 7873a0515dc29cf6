package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/example/lexidrill/pkg/models"
)

// ProgressRepository handles database operations for progress records
type ProgressRepository struct{}

// NewProgressRepository creates a new repository instance
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{}
}

// GetByEnrollmentAndItem returns the progress record for one pair, or
// sql.ErrNoRows if the pair has never been answered.
func (r *ProgressRepository) GetByEnrollmentAndItem(ctx context.Context, enrollmentID, itemID int64) (*models.ProgressRecord, error) {
	var rec models.ProgressRecord
	err := DB.GetContext(ctx, &rec,
		"SELECT * FROM progress_records WHERE enrollment_id = $1 AND item_id = $2",
		enrollmentID, itemID)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetByEnrollment returns all progress records for an enrollment. This
// is a plain snapshot read; selection and mastery tolerate staleness.
func (r *ProgressRepository) GetByEnrollment(ctx context.Context, enrollmentID int64) ([]models.ProgressRecord, error) {
	var records []models.ProgressRecord
	err := DB.SelectContext(ctx, &records,
		"SELECT * FROM progress_records WHERE enrollment_id = $1", enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress records: %w", err)
	}
	return records, nil
}

// Mutate runs apply on the progress record for (enrollmentID, itemID)
// inside a row-locking transaction and persists the result. When no
// record exists yet, apply receives a fresh one (ID 0) and Mutate
// inserts it; the UNIQUE(enrollment_id, item_id) constraint is the
// backstop against two concurrent creates, and losing that race is
// retried once as an update.
func (r *ProgressRepository) Mutate(ctx context.Context, enrollmentID, itemID int64, apply func(rec *models.ProgressRecord)) (*models.ProgressRecord, error) {
	rec, err := r.mutateOnce(ctx, enrollmentID, itemID, apply)
	if err != nil && isUniqueViolation(err) {
		// Another call created the row first; reload and update it.
		rec, err = r.mutateOnce(ctx, enrollmentID, itemID, apply)
	}
	return rec, err
}

func (r *ProgressRepository) mutateOnce(ctx context.Context, enrollmentID, itemID int64, apply func(rec *models.ProgressRecord)) (*models.ProgressRecord, error) {
	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	query := "SELECT * FROM progress_records WHERE enrollment_id = $1 AND item_id = $2"
	if Type() == "postgres" {
		query += " FOR UPDATE"
	}

	var rec models.ProgressRecord
	exists := true
	err = tx.GetContext(ctx, &rec, query, enrollmentID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
		rec = models.ProgressRecord{
			EnrollmentID:   enrollmentID,
			ItemID:         itemID,
			EasinessFactor: 2.5,
			IntervalDays:   1,
		}
	} else if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load progress record: %w", err)
	}

	apply(&rec)

	if exists {
		err = r.update(ctx, tx, &rec)
	} else {
		err = r.insert(ctx, tx, &rec)
	}
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &rec, nil
}

func (r *ProgressRepository) insert(ctx context.Context, tx *sqlx.Tx, rec *models.ProgressRecord) error {
	if Type() == "postgres" {
		query := `
			INSERT INTO progress_records (
				enrollment_id, item_id, memory_strength, easiness_factor, interval_days,
				repetition_count, correct_count, incorrect_count, total_attempts, accuracy_rate,
				last_reviewed_at, next_review_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id, created_at, updated_at
		`
		return tx.QueryRowContext(ctx, query,
			rec.EnrollmentID, rec.ItemID, rec.MemoryStrength, rec.EasinessFactor, rec.IntervalDays,
			rec.RepetitionCount, rec.CorrectCount, rec.IncorrectCount, rec.TotalAttempts, rec.AccuracyRate,
			rec.LastReviewedAt, rec.NextReviewAt,
		).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	}

	// SQLite doesn't support RETURNING on older versions, so read the
	// generated columns back separately.
	result, err := tx.ExecContext(ctx, `
		INSERT INTO progress_records (
			enrollment_id, item_id, memory_strength, easiness_factor, interval_days,
			repetition_count, correct_count, incorrect_count, total_attempts, accuracy_rate,
			last_reviewed_at, next_review_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rec.EnrollmentID, rec.ItemID, rec.MemoryStrength, rec.EasinessFactor, rec.IntervalDays,
		rec.RepetitionCount, rec.CorrectCount, rec.IncorrectCount, rec.TotalAttempts, rec.AccuracyRate,
		rec.LastReviewedAt, rec.NextReviewAt,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	return tx.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM progress_records WHERE id = $1", rec.ID,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
}

func (r *ProgressRepository) update(ctx context.Context, tx *sqlx.Tx, rec *models.ProgressRecord) error {
	now := "CURRENT_TIMESTAMP"
	if Type() == "postgres" {
		now = "NOW()"
	}
	query := fmt.Sprintf(`
		UPDATE progress_records SET
			memory_strength = $1,
			easiness_factor = $2,
			interval_days = $3,
			repetition_count = $4,
			correct_count = $5,
			incorrect_count = $6,
			total_attempts = $7,
			accuracy_rate = $8,
			last_reviewed_at = $9,
			next_review_at = $10,
			updated_at = %s
		WHERE id = $11`, now)

	_, err := tx.ExecContext(ctx, query,
		rec.MemoryStrength, rec.EasinessFactor, rec.IntervalDays,
		rec.RepetitionCount, rec.CorrectCount, rec.IncorrectCount,
		rec.TotalAttempts, rec.AccuracyRate,
		rec.LastReviewedAt, rec.NextReviewAt,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress record: %w", err)
	}
	return tx.QueryRowContext(ctx,
		"SELECT updated_at FROM progress_records WHERE id = $1", rec.ID,
	).Scan(&rec.UpdatedAt)
}

// isUniqueViolation reports whether err is a uniqueness-constraint
// failure from either supported driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
