package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studybuddy/studybuddy-api/internal/store"
)

func TestMapError(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, `CREATE TABLE t (id TEXT PRIMARY KEY, n INTEGER CHECK (n > 0))`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO t (id, n) VALUES ('a', 1)`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO t (id, n) VALUES ('a', 2)`)
	assert.ErrorIs(t, MapError(err), store.ErrDuplicate)

	_, err = db.ExecContext(ctx, `INSERT INTO t (id, n) VALUES ('b', -1)`)
	assert.ErrorIs(t, MapError(err), store.ErrInvalidEntity)

	assert.ErrorIs(t, MapError(sql.ErrNoRows), store.ErrNotFound)
	assert.NoError(t, MapError(nil))

	plain := errors.New("disk I/O error")
	assert.Same(t, plain, MapError(plain))
}

func TestMapError_LockedDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "locked.db")

	holder, err := Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = holder.Close() }()

	tx, err := holder.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	// no busy timeout: the second writer fails at once
	impatient, err := sql.Open(DriverName, path+"?_txlock=immediate")
	require.NoError(t, err)
	defer func() { _ = impatient.Close() }()

	_, err = impatient.BeginTx(ctx, nil)
	require.Error(t, err)
	assert.ErrorIs(t, MapError(err), store.ErrConcurrencyConflict)
}

func TestWithFileParams(t *testing.T) {
	assert.Equal(t, ":memory:", WithFileParams(":memory:"))
	assert.Equal(t, "file:test?mode=memory", WithFileParams("file:test?mode=memory"))
	assert.Equal(t, "studybuddy.db?"+fileParams, WithFileParams("studybuddy.db"))
	assert.Equal(t, "file:studybuddy.db?cache=private&"+fileParams,
		WithFileParams("file:studybuddy.db?cache=private"))
}

func TestTimeRoundTrip(t *testing.T) {
	in := "2024-03-01T09:00:00.123456789Z"
	parsed, err := parseTime(in)
	require.NoError(t, err)
	assert.Equal(t, in, formatTime(parsed))

	_, err = parseTime("yesterday")
	assert.Error(t, err)
}

func TestIsMemoryDSN(t *testing.T) {
	assert.True(t, IsMemoryDSN(":memory:"))
	assert.True(t, IsMemoryDSN("file:test?mode=memory&cache=shared"))
	assert.False(t, IsMemoryDSN("file:studybuddy.db"))
}
