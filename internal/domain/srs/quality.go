package srs

import (
	"errors"
	"fmt"
)

// ErrInvalidQuality is returned when a recall grade falls outside [0, 5].
// Out-of-range grades are rejected, never clamped.
var ErrInvalidQuality = errors.New("quality must be an integer between 0 and 5")

// Quality is the learner's self-assessed recall grade for a single review.
type Quality int

// SM-2 recall grades.
const (
	QualityBlackout   Quality = 0 // complete blackout
	QualityIncorrect  Quality = 1 // incorrect, but the answer felt familiar
	QualityHardWrong  Quality = 2 // incorrect, but the answer seemed easy once shown
	QualityHard       Quality = 3 // correct with serious difficulty
	QualityHesitation Quality = 4 // correct after hesitation
	QualityPerfect    Quality = 5 // perfect recall
)

// Validate reports whether q is a legal grade.
func (q Quality) Validate() error {
	if q < QualityBlackout || q > QualityPerfect {
		return fmt.Errorf("%w: got %d", ErrInvalidQuality, int(q))
	}
	return nil
}

// IsSuccess reports whether the review counts as a successful recall
// under the given parameters.
func (q Quality) IsSuccess(params *Params) bool {
	return int(q) >= params.SuccessThreshold
}
