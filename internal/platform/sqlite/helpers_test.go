package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/platform/migrations"
	"github.com/studybuddy/studybuddy-api/internal/platform/sqlite"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(ctx, db, migrations.DriverSQLite, nil))
	return db
}

func mustCard(t *testing.T, userID uuid.UUID, documentID *uuid.UUID, front string, now time.Time) *domain.Flashcard {
	t.Helper()
	card, err := domain.NewFlashcard(userID, documentID, domain.CardDraft{Front: front, Back: "answer"}, now)
	require.NoError(t, err)
	return card
}
