package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studybuddy/studybuddy-api/internal/platform/sqlite"
)

func TestActivityStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	s := sqlite.NewActivityStore(openTestDB(t), nil)
	userID := uuid.New()

	day1 := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 0, 1, 0, 0, time.UTC)

	require.NoError(t, s.RecordReview(ctx, userID, day1, false))
	require.NoError(t, s.RecordReview(ctx, userID, day1.Add(-time.Hour), true))
	require.NoError(t, s.RecordReview(ctx, userID, day2, false))
	require.NoError(t, s.RecordReview(ctx, uuid.New(), day2, false))

	days, err := s.ListSince(ctx, userID, day1)
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), days[0].Day)
	assert.Equal(t, 2, days[0].Reviews)
	assert.Equal(t, 1, days[0].Lapses)
	assert.Equal(t, userID, days[0].UserID)

	assert.Equal(t, 1, days[1].Reviews)
	assert.Equal(t, 0, days[1].Lapses)

	later, err := s.ListSince(ctx, userID, day2)
	require.NoError(t, err)
	assert.Len(t, later, 1)

	empty, err := s.ListSince(ctx, uuid.New(), day1)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
