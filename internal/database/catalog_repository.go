package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/lexidrill/pkg/models"
)

// CatalogRepository handles database operations for assignments, items
// and enrollments. It backs the content-catalog collaborator the
// scheduling engine reads item sets from.
type CatalogRepository struct{}

// NewCatalogRepository creates a new repository instance
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{}
}

// GetOrCreateAssignment returns the assignment with the given title,
// creating it when missing. The second result reports whether a new
// row was created.
func (r *CatalogRepository) GetOrCreateAssignment(ctx context.Context, title string) (*models.Assignment, bool, error) {
	var a models.Assignment
	err := DB.GetContext(ctx, &a, "SELECT * FROM assignments WHERE title = $1", title)
	if err == nil {
		return &a, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to get assignment: %w", err)
	}

	a.Title = title
	if Type() == "postgres" {
		err = DB.QueryRowContext(ctx,
			"INSERT INTO assignments (title) VALUES ($1) RETURNING id, created_at",
			title).Scan(&a.ID, &a.CreatedAt)
		if err != nil {
			return nil, false, fmt.Errorf("failed to create assignment: %w", err)
		}
		return &a, true, nil
	}

	result, err := DB.ExecContext(ctx, "INSERT INTO assignments (title) VALUES ($1)", title)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create assignment: %w", err)
	}
	a.ID, err = result.LastInsertId()
	if err != nil {
		return nil, false, err
	}
	err = DB.QueryRowContext(ctx, "SELECT created_at FROM assignments WHERE id = $1", a.ID).Scan(&a.CreatedAt)
	return &a, true, err
}

// UpsertItem creates an item or refreshes the translation of an
// existing (assignment_id, term) pair. Returns true when a new row was
// created.
func (r *CatalogRepository) UpsertItem(ctx context.Context, item *models.Item) (bool, error) {
	var existingID int64
	err := DB.QueryRowContext(ctx,
		"SELECT id FROM items WHERE assignment_id = $1 AND term = $2",
		item.AssignmentID, item.Term).Scan(&existingID)
	if err == nil {
		item.ID = existingID
		now := "CURRENT_TIMESTAMP"
		if Type() == "postgres" {
			now = "NOW()"
		}
		_, err = DB.ExecContext(ctx, fmt.Sprintf(
			"UPDATE items SET translation = $1, updated_at = %s WHERE id = $2", now),
			item.Translation, item.ID)
		if err != nil {
			return false, fmt.Errorf("failed to update item: %w", err)
		}
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to look up item: %w", err)
	}

	if Type() == "postgres" {
		err = DB.QueryRowContext(ctx,
			"INSERT INTO items (assignment_id, term, translation) VALUES ($1, $2, $3) RETURNING id",
			item.AssignmentID, item.Term, item.Translation).Scan(&item.ID)
		if err != nil {
			return false, fmt.Errorf("failed to create item: %w", err)
		}
		return true, nil
	}

	result, err := DB.ExecContext(ctx,
		"INSERT INTO items (assignment_id, term, translation) VALUES ($1, $2, $3)",
		item.AssignmentID, item.Term, item.Translation)
	if err != nil {
		return false, fmt.Errorf("failed to create item: %w", err)
	}
	item.ID, err = result.LastInsertId()
	return true, err
}

// GetItemsByAssignment returns all items belonging to an assignment.
func (r *CatalogRepository) GetItemsByAssignment(ctx context.Context, assignmentID int64) ([]models.Item, error) {
	var items []models.Item
	err := DB.SelectContext(ctx, &items,
		"SELECT * FROM items WHERE assignment_id = $1 ORDER BY id", assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	return items, nil
}

// CreateEnrollment links a learner to an assignment.
func (r *CatalogRepository) CreateEnrollment(ctx context.Context, e *models.Enrollment) error {
	if Type() == "postgres" {
		return DB.QueryRowContext(ctx, `
			INSERT INTO enrollments (learner_id, assignment_id, target_mastery)
			VALUES ($1, $2, $3) RETURNING id, created_at`,
			e.LearnerID, e.AssignmentID, e.TargetMastery).Scan(&e.ID, &e.CreatedAt)
	}

	result, err := DB.ExecContext(ctx,
		"INSERT INTO enrollments (learner_id, assignment_id, target_mastery) VALUES ($1, $2, $3)",
		e.LearnerID, e.AssignmentID, e.TargetMastery)
	if err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}
	e.ID, err = result.LastInsertId()
	if err != nil {
		return err
	}
	return DB.QueryRowContext(ctx,
		"SELECT created_at FROM enrollments WHERE id = $1", e.ID).Scan(&e.CreatedAt)
}

// GetEnrollment returns one enrollment, or sql.ErrNoRows when unknown.
func (r *CatalogRepository) GetEnrollment(ctx context.Context, enrollmentID int64) (*models.Enrollment, error) {
	var e models.Enrollment
	err := DB.GetContext(ctx, &e, "SELECT * FROM enrollments WHERE id = $1", enrollmentID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// HasItem reports whether the item belongs to the enrollment's
// assignment. An unknown enrollment yields sql.ErrNoRows.
func (r *CatalogRepository) HasItem(ctx context.Context, enrollmentID, itemID int64) (bool, error) {
	e, err := r.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return false, err
	}
	var count int
	err = DB.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM items WHERE id = $1 AND assignment_id = $2",
		itemID, e.AssignmentID)
	if err != nil {
		return false, fmt.Errorf("failed to check item membership: %w", err)
	}
	return count > 0, nil
}

// TargetMastery returns the enrollment's mastery threshold; 0 means
// the engine default applies.
func (r *CatalogRepository) TargetMastery(ctx context.Context, enrollmentID int64) (float64, error) {
	e, err := r.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return 0, err
	}
	return e.TargetMastery, nil
}

// ItemIDs returns every item ID covered by the enrollment's
// assignment. An unknown enrollment yields sql.ErrNoRows.
func (r *CatalogRepository) ItemIDs(ctx context.Context, enrollmentID int64) ([]int64, error) {
	e, err := r.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	var ids []int64
	err = DB.SelectContext(ctx, &ids,
		"SELECT id FROM items WHERE assignment_id = $1 ORDER BY id", e.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item ids: %w", err)
	}
	return ids, nil
}
