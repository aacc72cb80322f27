// Package srs implements the SM-2 spaced repetition scheduler.
//
// The package is pure: it performs no I/O, keeps no state between calls and
// reads no clock. Every timestamp is supplied by the caller.
package srs

import (
	"time"
)

// Scheduler computes review state transitions.
type Scheduler interface {
	// NewCard returns the initial state of a card created at now.
	NewCard(now time.Time) State

	// Review applies a recall grade to state at time now and returns the
	// resulting state. It returns ErrInvalidQuality when quality is outside
	// [0, 5]; the input state is never modified.
	Review(state State, quality Quality, now time.Time) (State, error)
}

type defaultScheduler struct {
	params *Params
}

var _ Scheduler = (*defaultScheduler)(nil)

// NewDefaultScheduler returns a Scheduler using the standard SM-2 constants.
func NewDefaultScheduler() Scheduler {
	return &defaultScheduler{params: DefaultParams()}
}

// NewScheduler returns a Scheduler using custom parameters.
func NewScheduler(params *Params) (Scheduler, error) {
	if params == nil {
		return NewDefaultScheduler(), nil
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	p := *params
	return &defaultScheduler{params: &p}, nil
}

func (s *defaultScheduler) NewCard(now time.Time) State {
	return newStateWithParams(now, s.params)
}

func (s *defaultScheduler) Review(state State, quality Quality, now time.Time) (State, error) {
	if err := quality.Validate(); err != nil {
		return State{}, err
	}
	return calculateNextState(state, quality, now, s.params), nil
}

var defaultSchedulerInstance = NewDefaultScheduler()

// Review applies quality to state using the standard SM-2 constants.
func Review(state State, quality Quality, now time.Time) (State, error) {
	return defaultSchedulerInstance.Review(state, quality, now)
}
