package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/studybuddy/studybuddy-api/internal/api/shared"
	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/domain/srs"
	"github.com/studybuddy/studybuddy-api/internal/generation"
	"github.com/studybuddy/studybuddy-api/internal/service"
	"github.com/studybuddy/studybuddy-api/internal/service/auth"
	"github.com/studybuddy/studybuddy-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrConcurrencyConflict),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, srs.ErrInvalidQuality),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, service.ErrBatchTooLarge),
		errors.Is(err, service.ErrTextTooLong),
		errors.Is(err, generation.ErrEmptyText):
		return http.StatusBadRequest

	// Generation errors
	case errors.Is(err, generation.ErrContentBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generation.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrTransientFailure),
		errors.Is(err, generation.ErrInvalidConfig),
		errors.Is(err, generation.ErrGenerationFailed):
		return http.StatusBadGateway

	// Default: internal server error, including store.ErrInvalidEntity
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErr *domain.ValidationError
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized):
		return "Invalid token"

	case errors.Is(err, store.ErrCardNotFound):
		return "Flashcard not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrConcurrencyConflict):
		return "Flashcard was modified concurrently, please retry"
	case errors.Is(err, store.ErrDuplicate):
		return "Flashcard already exists"

	case errors.Is(err, srs.ErrInvalidQuality):
		return "Quality must be an integer between 0 and 5"
	case errors.As(err, &validationErr):
		return validationMessage(validationErr)
	case errors.Is(err, domain.ErrValidation):
		return "Invalid flashcard data"
	case errors.Is(err, service.ErrBatchTooLarge):
		return fmt.Sprintf("At most %d flashcards can be created at once", service.MaxBatchSize)
	case errors.Is(err, service.ErrTextTooLong):
		return fmt.Sprintf("Text must be at most %d characters", generation.MaxSourceTextLength)
	case errors.Is(err, generation.ErrEmptyText):
		return "Text cannot be empty"

	case errors.Is(err, generation.ErrContentBlocked):
		return "The text was rejected by the content filter"
	case errors.Is(err, generation.ErrUnavailable):
		return "Flashcard generation is not available"
	case errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrTransientFailure),
		errors.Is(err, generation.ErrInvalidConfig),
		errors.Is(err, generation.ErrGenerationFailed):
		return "Flashcard generation failed, please try again later"

	default:
		return "An unexpected error occurred"
	}
}

// validationMessage renders a domain validation error for clients. The
// messages are built from field names and fixed text only.
func validationMessage(err *domain.ValidationError) string {
	if err.Index >= 0 {
		return fmt.Sprintf("flashcards[%d].%s %s", err.Index, err.Field, err.Message)
	}
	return fmt.Sprintf("%s %s", err.Field, err.Message)
}

// SanitizeValidationError turns a request validation failure into a
// user-friendly message naming the first failing field.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := fe.Field()
		if field == "" {
			field = strings.ToLower(fe.StructField())
		}
		return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too small"
	case "max":
		return "too large"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "invalid UUID"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the response for err. fallback replaces the generic
// message of unmapped (500) errors when it is not empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	var opts []shared.ResponseOption
	if status == http.StatusConflict {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
