package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
var (
	// ErrBatchTooLarge indicates a creation request above MaxBatchSize cards.
	// API layer should map this to HTTP 400 Bad Request.
	ErrBatchTooLarge = errors.New("too many flashcards in one request")

	// ErrTextTooLong indicates generation input above generation.MaxSourceTextLength.
	ErrTextTooLong = errors.New("source text too long")
)

// FlashcardServiceError is a custom error type for flashcard service errors.
type FlashcardServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for FlashcardServiceError.
func (e *FlashcardServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flashcard service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("flashcard service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *FlashcardServiceError) Unwrap() error {
	return e.Err
}

// NewFlashcardServiceError creates a new FlashcardServiceError.
func NewFlashcardServiceError(operation, message string, err error) *FlashcardServiceError {
	return &FlashcardServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
