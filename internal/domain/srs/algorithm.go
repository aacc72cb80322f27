package srs

import (
	"math"
	"time"
)

// calculateNewEaseFactor applies the SM-2 ease update.
//
// The update runs for every grade, successful or not, and uses the ease
// factor the card had before the review. The result is floored at
// params.MinEaseFactor.
func calculateNewEaseFactor(currentEF float64, quality Quality, params *Params) float64 {
	d := float64(QualityPerfect - quality)
	newEF := currentEF + (params.EaseBonus - d*(params.EaseLinearPenalty+d*params.EaseQuadraticPenalty))
	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}
	return newEF
}

// calculateNewInterval returns the next interval in days.
//
// Parameters:
//   - currentInterval: interval before this review
//   - repetitions: consecutive successes before this review
//   - easeFactor: ease before this review
//   - quality: the recall grade
//
// Algorithm behavior:
//   - a failed review resets the interval to params.LapseIntervalDays
//   - the first two successes use the fixed bootstrap intervals (1, then 6)
//   - later successes multiply the previous interval by the ease factor and
//     round half away from zero
func calculateNewInterval(
	currentInterval int,
	repetitions int,
	easeFactor float64,
	quality Quality,
	params *Params,
) int {
	if !quality.IsSuccess(params) {
		return params.LapseIntervalDays
	}

	switch repetitions {
	case 0:
		return params.FirstIntervalDays
	case 1:
		return params.SecondIntervalDays
	}

	next := int(math.Round(float64(currentInterval) * easeFactor))
	if next < 1 {
		next = 1
	}
	return next
}

// calculateNextReviewDate adds whole calendar days to the review time.
func calculateNextReviewDate(reviewedAt time.Time, intervalDays int) time.Time {
	return reviewedAt.AddDate(0, 0, intervalDays)
}

// calculateNextState is the SM-2 transition. It never mutates its input.
func calculateNextState(state State, quality Quality, now time.Time, params *Params) State {
	interval := calculateNewInterval(
		state.intervalDays,
		state.repetitions,
		state.easeFactor,
		quality,
		params,
	)

	repetitions := 0
	if quality.IsSuccess(params) {
		repetitions = state.repetitions + 1
	}

	reviewedAt := now
	return State{
		easeFactor:     calculateNewEaseFactor(state.easeFactor, quality, params),
		intervalDays:   interval,
		repetitions:    repetitions,
		nextReviewAt:   calculateNextReviewDate(reviewedAt, interval),
		lastReviewedAt: &reviewedAt,
	}
}
