package repositories

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"dealdesk/internal/database"
	"dealdesk/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "crm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db))
	return db
}

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newDeal(title, stageID, ownerID string) *models.Deal {
	return &models.Deal{
		ID:            uuid.NewString(),
		Title:         title,
		ValueCurrency: "EUR",
		Status:        models.DealOpen,
		StageID:       stageID,
		OwnerID:       ownerID,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
		Version:       1,
	}
}

func ptr[T any](v T) *T { return &v }

func TestPlaceholders(t *testing.T) {
	require.Equal(t, "$4, $5, $6", placeholders(4, 3))
	require.Equal(t, "$1", placeholders(1, 1))
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	require.Equal(t, `%acme%`, likePattern("  ACME "))
	require.Equal(t, `%50\% off%`, likePattern("50% off"))
	require.Equal(t, `%a\_b\\c%`, likePattern(`a_b\c`))
}
