package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&count)
	require.NoError(t, err)
	return count == 1
}

func TestUp_SQLite(t *testing.T) {
	ctx := context.Background()
	db := openMemoryDB(t)

	require.NoError(t, Up(ctx, db, DriverSQLite, nil))

	assert.True(t, tableExists(t, db, "flashcards"))
	assert.True(t, tableExists(t, db, "study_activity"))
	assert.True(t, tableExists(t, db, TableName))

	version, err := Version(ctx, db, DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	// already applied
	require.NoError(t, Up(ctx, db, DriverSQLite, nil))
}

func TestRun_DownAndReset(t *testing.T) {
	ctx := context.Background()
	db := openMemoryDB(t)
	require.NoError(t, Up(ctx, db, DriverSQLite, nil))

	require.NoError(t, Run(ctx, db, DriverSQLite, "down", nil))
	assert.False(t, tableExists(t, db, "study_activity"))
	assert.True(t, tableExists(t, db, "flashcards"))

	require.NoError(t, Run(ctx, db, DriverSQLite, "reset", nil))
	assert.False(t, tableExists(t, db, "flashcards"))
}

func TestRun_Rejections(t *testing.T) {
	ctx := context.Background()
	db := openMemoryDB(t)

	err := Run(ctx, db, "mysql", "up", nil)
	assert.ErrorIs(t, err, ErrUnsupportedDriver)

	err = Run(ctx, db, DriverSQLite, "explode", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
}

func TestTargetFor(t *testing.T) {
	pg, err := targetFor(DriverPostgres)
	require.NoError(t, err)
	assert.Equal(t, "postgres", pg.dialect)

	lite, err := targetFor(DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", lite.dialect)
	assert.Equal(t, "sqlite", lite.dir)
}

func TestEmbeddedMigrations(t *testing.T) {
	for _, dir := range []string{"postgres", "sqlite"} {
		entries, err := embedMigrations.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2, dir)
	}
}
