package srs

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidState is returned by Restore when persisted values violate the
// scheduling invariants.
var ErrInvalidState = errors.New("invalid review state")

// State is the per-card scheduling state.
//
// State is an immutable value: it can only be produced by NewState, by a
// Scheduler transition, or by Restore when reading it back from storage.
// Callers cannot edit the fields directly, so NextReviewAt is always derived
// from the last review and the current interval.
type State struct {
	easeFactor     float64
	intervalDays   int
	repetitions    int
	nextReviewAt   time.Time
	lastReviewedAt *time.Time
}

// NewState returns the scheduling state of a freshly created card.
// The card is due immediately.
func NewState(now time.Time) State {
	return newStateWithParams(now, DefaultParams())
}

func newStateWithParams(now time.Time, params *Params) State {
	return State{
		easeFactor:   params.InitialEaseFactor,
		intervalDays: params.InitialIntervalDays,
		repetitions:  0,
		nextReviewAt: now,
	}
}

// Restore rebuilds a State from persisted values.
//
// It is meant for storage adapters only. Application code obtains states
// from NewState or a Scheduler.
func Restore(
	easeFactor float64,
	intervalDays int,
	repetitions int,
	nextReviewAt time.Time,
	lastReviewedAt *time.Time,
) (State, error) {
	params := DefaultParams()

	if easeFactor < params.MinEaseFactor {
		return State{}, fmt.Errorf("%w: ease factor %.4f below minimum %.2f",
			ErrInvalidState, easeFactor, params.MinEaseFactor)
	}
	if intervalDays < 0 {
		return State{}, fmt.Errorf("%w: negative interval %d", ErrInvalidState, intervalDays)
	}
	if repetitions < 0 {
		return State{}, fmt.Errorf("%w: negative repetitions %d", ErrInvalidState, repetitions)
	}
	if repetitions >= 1 && intervalDays < 1 {
		return State{}, fmt.Errorf("%w: interval %d with %d repetitions",
			ErrInvalidState, intervalDays, repetitions)
	}
	if nextReviewAt.IsZero() {
		return State{}, fmt.Errorf("%w: missing next review time", ErrInvalidState)
	}

	var last *time.Time
	if lastReviewedAt != nil {
		t := *lastReviewedAt
		last = &t
	}

	return State{
		easeFactor:     easeFactor,
		intervalDays:   intervalDays,
		repetitions:    repetitions,
		nextReviewAt:   nextReviewAt,
		lastReviewedAt: last,
	}, nil
}

// EaseFactor is the multiplier applied to the interval on successful recall.
func (s State) EaseFactor() float64 { return s.easeFactor }

// IntervalDays is the number of days between the last review and the next.
func (s State) IntervalDays() int { return s.intervalDays }

// Repetitions is the count of consecutive successful reviews.
func (s State) Repetitions() int { return s.repetitions }

// NextReviewAt is when the card becomes due.
func (s State) NextReviewAt() time.Time { return s.nextReviewAt }

// LastReviewedAt returns the time of the most recent review, if any.
func (s State) LastReviewedAt() (time.Time, bool) {
	if s.lastReviewedAt == nil {
		return time.Time{}, false
	}
	return *s.lastReviewedAt, true
}

// IsNew reports whether the card has never been reviewed.
func (s State) IsNew() bool {
	return s.lastReviewedAt == nil
}

// IsDue reports whether the card should be presented at now.
func (s State) IsDue(now time.Time) bool {
	return !s.nextReviewAt.After(now)
}
