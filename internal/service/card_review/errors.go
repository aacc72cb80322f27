package card_review

import (
	"fmt"

	"github.com/studybuddy/studybuddy-api/internal/domain/srs"
	"github.com/studybuddy/studybuddy-api/internal/store"
)

// Errors returned by SubmitReview. They are the store and scheduler
// sentinels, re-exported so callers can match them without importing those
// packages.
var (
	// ErrInvalidQuality indicates a grade outside 0..5.
	ErrInvalidQuality = srs.ErrInvalidQuality

	// ErrCardNotFound indicates that the card does not exist or is owned by
	// another user.
	ErrCardNotFound = store.ErrCardNotFound

	// ErrConcurrencyConflict indicates the card kept changing underneath the
	// review, even after a retry.
	ErrConcurrencyConflict = store.ErrConcurrencyConflict
)

// ServiceError wraps errors from the card review service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "submit_review")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewSubmitReviewError returns a new ServiceError for the submit_review operation.
func NewSubmitReviewError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "submit_review",
		Message:   message,
		Err:       err,
	}
}
