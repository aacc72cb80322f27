package testutils

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/studybuddy/studybuddy-api/internal/platform/migrations"
	"github.com/studybuddy/studybuddy-api/internal/platform/sqlite"
)

// NewSQLiteDB opens a private in-memory SQLite database with the full
// schema applied. It is closed when the test ends.
func NewSQLiteDB(t testing.TB) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err, "failed to open sqlite database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(ctx, db, migrations.DriverSQLite, nil),
		"failed to migrate sqlite database")
	return db
}

// NewSQLiteFileDB opens a SQLite database file in a temporary directory with
// the full schema applied. Unlike NewSQLiteDB it allows concurrent
// connections, so transactions on different connections really contend.
func NewSQLiteFileDB(t testing.TB) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "studybuddy_test.db"))
	require.NoError(t, err, "failed to open sqlite database file")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(ctx, db, migrations.DriverSQLite, nil),
		"failed to migrate sqlite database file")
	return db
}

// CountCards returns how many cards userID owns.
func CountCards(t testing.TB, db *sql.DB, userID uuid.UUID) int {
	t.Helper()
	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM flashcards WHERE user_id = ?", userID.String()).Scan(&count)
	require.NoError(t, err)
	return count
}
