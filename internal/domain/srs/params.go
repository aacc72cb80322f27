package srs

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned when scheduler parameters are inconsistent.
var ErrInvalidParams = errors.New("invalid scheduler parameters")

// Params holds the constants of the SM-2 algorithm.
//
// The defaults are the published SM-2 values and should not be changed for
// production scheduling; overrides exist for experiments and tests.
type Params struct {
	// MinEaseFactor is the floor applied after every ease update.
	MinEaseFactor float64

	// InitialEaseFactor is the ease of a new card.
	InitialEaseFactor float64

	// InitialIntervalDays is the interval stored on a new card.
	InitialIntervalDays int

	// SuccessThreshold is the lowest quality counted as a successful recall.
	SuccessThreshold int

	// FirstIntervalDays is the interval after the first successful review.
	FirstIntervalDays int

	// SecondIntervalDays is the interval after the second consecutive success.
	SecondIntervalDays int

	// LapseIntervalDays is the interval after a failed review.
	LapseIntervalDays int

	// Ease update: EF' = EF + (EaseBonus - d*(EaseLinearPenalty + d*EaseQuadraticPenalty)),
	// where d = 5 - quality.
	EaseBonus            float64
	EaseLinearPenalty    float64
	EaseQuadraticPenalty float64
}

// DefaultParams returns the standard SM-2 constants.
func DefaultParams() *Params {
	return &Params{
		MinEaseFactor:        1.3,
		InitialEaseFactor:    2.5,
		InitialIntervalDays:  1,
		SuccessThreshold:     3,
		FirstIntervalDays:    1,
		SecondIntervalDays:   6,
		LapseIntervalDays:    1,
		EaseBonus:            0.1,
		EaseLinearPenalty:    0.08,
		EaseQuadraticPenalty: 0.02,
	}
}

// Validate checks that the parameters can produce valid states.
func (p *Params) Validate() error {
	switch {
	case p.MinEaseFactor <= 0:
		return fmt.Errorf("%w: min ease factor must be positive", ErrInvalidParams)
	case p.InitialEaseFactor < p.MinEaseFactor:
		return fmt.Errorf("%w: initial ease factor below minimum", ErrInvalidParams)
	case p.InitialIntervalDays < 0:
		return fmt.Errorf("%w: initial interval must not be negative", ErrInvalidParams)
	case p.SuccessThreshold < int(QualityBlackout) || p.SuccessThreshold > int(QualityPerfect):
		return fmt.Errorf("%w: success threshold must be a valid quality", ErrInvalidParams)
	case p.FirstIntervalDays < 1, p.SecondIntervalDays < 1, p.LapseIntervalDays < 1:
		return fmt.Errorf("%w: intervals must be at least one day", ErrInvalidParams)
	}
	return nil
}
