package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/lexidrill/pkg/models"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, Connect())
	t.Cleanup(func() { Close() })
}

// seedEnrollment creates an assignment with n items and one enrollment
// covering it, returning the enrollment and item IDs.
func seedEnrollment(t *testing.T, n int) (int64, []int64) {
	t.Helper()
	ctx := context.Background()
	catalog := NewCatalogRepository()

	a, created, err := catalog.GetOrCreateAssignment(ctx, "Unit test vocabulary")
	require.NoError(t, err)
	require.True(t, created)

	itemIDs := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		item := &models.Item{
			AssignmentID: a.ID,
			Term:         "term-" + string(rune('a'+i)),
			Translation:  "translation-" + string(rune('a'+i)),
		}
		_, err := catalog.UpsertItem(ctx, item)
		require.NoError(t, err)
		itemIDs = append(itemIDs, item.ID)
	}

	e := &models.Enrollment{LearnerID: 7, AssignmentID: a.ID}
	require.NoError(t, catalog.CreateEnrollment(ctx, e))
	return e.ID, itemIDs
}
