package srs_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/studybuddy/studybuddy-api/internal/domain/srs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func days(n int) time.Time {
	return day0.AddDate(0, 0, n)
}

func TestNewState(t *testing.T) {
	t.Parallel()

	state := srs.NewState(day0)

	assert.Equal(t, 2.5, state.EaseFactor())
	assert.Equal(t, 1, state.IntervalDays())
	assert.Equal(t, 0, state.Repetitions())
	assert.Equal(t, day0, state.NextReviewAt())
	_, reviewed := state.LastReviewedAt()
	assert.False(t, reviewed)
	assert.True(t, state.IsNew())
	assert.True(t, state.IsDue(day0), "a new card is due immediately")
}

func TestReview_WorkedExample(t *testing.T) {
	t.Parallel()

	state := srs.NewState(day0)

	state, err := srs.Review(state, 5, day0)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Repetitions())
	assert.Equal(t, 1, state.IntervalDays())
	assert.InDelta(t, 2.6, state.EaseFactor(), 1e-9)
	assert.Equal(t, days(1), state.NextReviewAt())

	state, err = srs.Review(state, 5, days(1))
	require.NoError(t, err)
	assert.Equal(t, 2, state.Repetitions())
	assert.Equal(t, 6, state.IntervalDays())
	assert.InDelta(t, 2.7, state.EaseFactor(), 1e-9)
	assert.Equal(t, days(7), state.NextReviewAt())

	state, err = srs.Review(state, 2, days(7))
	require.NoError(t, err)
	assert.Equal(t, 0, state.Repetitions())
	assert.Equal(t, 1, state.IntervalDays())
	assert.InDelta(t, 2.38, state.EaseFactor(), 1e-9)
	assert.Equal(t, days(8), state.NextReviewAt())

	last, ok := state.LastReviewedAt()
	require.True(t, ok)
	assert.Equal(t, days(7), last)
}

func TestReview_InvalidQuality(t *testing.T) {
	t.Parallel()

	state := srs.NewState(day0)
	for _, q := range []srs.Quality{-1, 6, 100, math.MinInt32} {
		_, err := srs.Review(state, q, day0)
		assert.ErrorIs(t, err, srs.ErrInvalidQuality, "quality %d", q)
	}
}

func TestReview_BootstrapIntervals(t *testing.T) {
	t.Parallel()

	for q := srs.QualityHard; q <= srs.QualityPerfect; q++ {
		state := srs.NewState(day0)

		state, err := srs.Review(state, q, day0)
		require.NoError(t, err)
		assert.Equal(t, 1, state.IntervalDays())

		state, err = srs.Review(state, q, days(1))
		require.NoError(t, err)
		assert.Equal(t, 6, state.IntervalDays())
		easeAfterSecond := state.EaseFactor()

		state, err = srs.Review(state, q, days(7))
		require.NoError(t, err)
		assert.Equal(t, int(math.Round(6*easeAfterSecond)), state.IntervalDays(), "quality %d", q)
	}
}

func TestReview_LapseResets(t *testing.T) {
	t.Parallel()

	state := srs.NewState(day0)
	now := day0
	var err error
	for i := 0; i < 5; i++ {
		state, err = srs.Review(state, srs.QualityPerfect, now)
		require.NoError(t, err)
		now = state.NextReviewAt()
	}
	require.Greater(t, state.IntervalDays(), 6)

	for q := srs.QualityBlackout; q < srs.QualityHard; q++ {
		lapsed, err := srs.Review(state, q, now)
		require.NoError(t, err)
		assert.Equal(t, 0, lapsed.Repetitions())
		assert.Equal(t, 1, lapsed.IntervalDays())
		assert.Equal(t, now.AddDate(0, 0, 1), lapsed.NextReviewAt())
	}
}

func TestReview_RandomSequences(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for seq := 0; seq < 500; seq++ {
		state := srs.NewState(day0)
		now := day0
		for step := 0; step < 30; step++ {
			q := srs.Quality(rng.Intn(6))
			prev := state

			next, err := srs.Review(state, q, now)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, next.EaseFactor(), 1.3)
			assert.GreaterOrEqual(t, next.IntervalDays(), 1)
			assert.Equal(t, now.AddDate(0, 0, next.IntervalDays()), next.NextReviewAt())

			if q >= srs.QualityHard {
				assert.Equal(t, prev.Repetitions()+1, next.Repetitions())
				if prev.Repetitions() >= 1 {
					assert.GreaterOrEqual(t, next.IntervalDays(), prev.IntervalDays(),
						"successful reviews never shrink the interval")
				}
			} else {
				assert.Equal(t, 0, next.Repetitions())
				assert.Equal(t, 1, next.IntervalDays())
			}

			// same inputs, same output
			again, err := srs.Review(prev, q, now)
			require.NoError(t, err)
			assert.Equal(t, next, again)

			state = next
			now = now.Add(time.Duration(rng.Intn(72)) * time.Hour)
		}
	}
}

func TestScheduler_CustomParams(t *testing.T) {
	t.Parallel()

	params := srs.DefaultParams()
	params.SecondIntervalDays = 4
	scheduler, err := srs.NewScheduler(params)
	require.NoError(t, err)

	state := scheduler.NewCard(day0)
	state, err = scheduler.Review(state, srs.QualityPerfect, day0)
	require.NoError(t, err)
	state, err = scheduler.Review(state, srs.QualityPerfect, days(1))
	require.NoError(t, err)
	assert.Equal(t, 4, state.IntervalDays())

	// later changes to the caller's copy do not leak into the scheduler
	params.SecondIntervalDays = 9
	fresh := scheduler.NewCard(day0)
	fresh, _ = scheduler.Review(fresh, srs.QualityPerfect, day0)
	fresh, _ = scheduler.Review(fresh, srs.QualityPerfect, days(1))
	assert.Equal(t, 4, fresh.IntervalDays())
}

func TestNewScheduler_InvalidParams(t *testing.T) {
	t.Parallel()

	params := srs.DefaultParams()
	params.MinEaseFactor = 0
	_, err := srs.NewScheduler(params)
	assert.ErrorIs(t, err, srs.ErrInvalidParams)

	params = srs.DefaultParams()
	params.SecondIntervalDays = 0
	_, err = srs.NewScheduler(params)
	assert.ErrorIs(t, err, srs.ErrInvalidParams)

	scheduler, err := srs.NewScheduler(nil)
	require.NoError(t, err)
	assert.NotNil(t, scheduler)
}
