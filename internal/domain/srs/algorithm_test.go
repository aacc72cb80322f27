package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateNewEaseFactor(t *testing.T) {
	t.Parallel()
	params := DefaultParams()

	testCases := []struct {
		name     string
		current  float64
		quality  Quality
		expected float64
	}{
		{"perfect recall raises ease", 2.5, QualityPerfect, 2.6},
		{"hesitation keeps ease", 2.5, QualityHesitation, 2.5},
		{"hard recall lowers ease", 2.5, QualityHard, 2.36},
		{"failed but easy lowers ease", 2.7, QualityHardWrong, 2.38},
		{"incorrect lowers ease", 2.5, QualityIncorrect, 1.96},
		{"blackout lowers ease", 2.5, QualityBlackout, 1.7},
		{"floor applies", 1.5, QualityBlackout, 1.3},
		{"floor holds at minimum", 1.3, QualityHard, 1.3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := calculateNewEaseFactor(tc.current, tc.quality, params)
			assert.InDelta(t, tc.expected, got, 1e-9)
		})
	}
}

func TestReview_EaseNonDecreasingInQuality(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	last := now.AddDate(0, 0, -6)

	for _, ease := range []float64{1.3, 1.5, 1.7, 2.0, 2.5, 2.7, 3.0} {
		for _, reps := range []int{0, 1, 4} {
			interval := 6
			if reps == 0 {
				interval = 0
			}
			prior, err := Restore(ease, interval, reps, now, &last)
			if !assert.NoError(t, err) {
				continue
			}

			prev := 0.0
			for q := QualityBlackout; q <= QualityPerfect; q++ {
				next, err := Review(prior, q, now)
				if !assert.NoError(t, err) {
					break
				}
				assert.GreaterOrEqual(t, next.EaseFactor(), prev,
					"ease %.2f reps %d quality %d", ease, reps, q)
				assert.GreaterOrEqual(t, next.EaseFactor(), 1.3)
				prev = next.EaseFactor()
			}
		}
	}
}

func TestCalculateNewInterval(t *testing.T) {
	t.Parallel()
	params := DefaultParams()

	testCases := []struct {
		name        string
		current     int
		repetitions int
		ease        float64
		quality     Quality
		expected    int
	}{
		{"first success", 1, 0, 2.5, QualityPerfect, 1},
		{"second success", 1, 1, 2.6, QualityHard, 6},
		{"third success multiplies", 6, 2, 2.7, QualityHesitation, 16},
		{"rounds half away from zero", 5, 3, 2.5, QualityHard, 13},
		{"rounds down below half", 10, 4, 1.34, QualityHard, 13},
		{"lapse resets", 40, 5, 2.5, QualityHardWrong, 1},
		{"blackout resets", 40, 5, 2.5, QualityBlackout, 1},
		{"lapse on new card", 1, 0, 2.5, QualityIncorrect, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := calculateNewInterval(tc.current, tc.repetitions, tc.ease, tc.quality, params)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestCalculateNextReviewDate(t *testing.T) {
	t.Parallel()

	reviewedAt := time.Date(2026, 1, 30, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 31, 14, 30, 0, 0, time.UTC), calculateNextReviewDate(reviewedAt, 1))
	assert.Equal(t, time.Date(2026, 2, 5, 14, 30, 0, 0, time.UTC), calculateNextReviewDate(reviewedAt, 6))
	assert.Equal(t, time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC), calculateNextReviewDate(reviewedAt, 31))
}

func TestCalculateNextState_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	state := NewState(now)
	before := state

	next := calculateNextState(state, QualityPerfect, now, DefaultParams())

	assert.Equal(t, before, state)
	assert.NotEqual(t, state, next)
	assert.True(t, state.IsNew())
	assert.False(t, next.IsNew())
}
