package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the services.
const (
	// TypeFlashcardReviewed follows every committed review.
	TypeFlashcardReviewed = "flashcard.reviewed"

	// TypeFlashcardsCreated follows every committed batch creation.
	TypeFlashcardsCreated = "flashcards.created"
)

// Event is a fact that has already happened and been committed.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type identifies the payload shape
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// FlashcardReviewed is the payload of TypeFlashcardReviewed.
type FlashcardReviewed struct {
	UserID       uuid.UUID `json:"user_id"`
	FlashcardID  uuid.UUID `json:"flashcard_id"`
	Quality      int       `json:"quality"`
	Lapsed       bool      `json:"lapsed"`
	IntervalDays int       `json:"interval_days"`
	ReviewedAt   time.Time `json:"reviewed_at"`
}

// FlashcardsCreated is the payload of TypeFlashcardsCreated.
type FlashcardsCreated struct {
	UserID       uuid.UUID   `json:"user_id"`
	DocumentID   *uuid.UUID  `json:"document_id,omitempty"`
	FlashcardIDs []uuid.UUID `json:"flashcard_ids"`
	Generated    bool        `json:"generated"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event with the specified type and payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Handlers ignore event types they do not care about.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}

// Dispatcher runs a handler for an event somewhere other than the caller's
// goroutine, typically a background worker.
type Dispatcher interface {
	Dispatch(ctx context.Context, handler EventHandler, event *Event) error
}
