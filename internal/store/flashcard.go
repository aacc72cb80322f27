package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/studybuddy/studybuddy-api/internal/domain"
)

// FlashcardStore defines the interface for flashcard persistence.
//
// Every read and write is scoped to a user: a card owned by someone else is
// reported as ErrCardNotFound, exactly like a card that does not exist.
type FlashcardStore interface {
	// CreateMultiple saves a batch of cards.
	// IMPORTANT: This method MUST be run within a transaction for atomicity.
	//
	// Usage example:
	//   err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
	//       return flashcardStore.WithTx(tx).CreateMultiple(ctx, cards)
	//   })
	CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error

	// GetByID retrieves a card owned by userID.
	// Returns ErrCardNotFound if the card does not exist or belongs to another user.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Flashcard, error)

	// GetForUpdate is GetByID with a row lock on backends that support one.
	// It should be called within a transaction.
	GetForUpdate(ctx context.Context, userID, id uuid.UUID) (*domain.Flashcard, error)

	// UpdateState writes card.State, card.Version and card.UpdatedAt, but only
	// if the stored version still equals expectedVersion.
	// Returns ErrConcurrencyConflict if another write got there first and
	// ErrCardNotFound if the card no longer exists.
	UpdateState(ctx context.Context, card *domain.Flashcard, expectedVersion int) error

	// ListByUser returns all of a user's cards, newest first, optionally
	// restricted to one document.
	ListByUser(ctx context.Context, userID uuid.UUID, documentID *uuid.UUID) ([]*domain.Flashcard, error)

	// QueryDue returns the user's cards whose next review time is at or
	// before now, ordered by due time and then creation order.
	// A limit of zero or less returns every due card. An empty result is
	// not an error.
	QueryDue(
		ctx context.Context,
		userID uuid.UUID,
		now time.Time,
		documentID *uuid.UUID,
		limit int,
	) ([]*domain.Flashcard, error)

	// Delete removes one card.
	// Returns ErrCardNotFound if the card does not exist or belongs to another user.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// DeleteByDocument removes every card of a document and returns how many
	// were deleted. Deleting zero cards is not an error.
	DeleteByDocument(ctx context.Context, userID, documentID uuid.UUID) (int64, error)

	// WithTx returns a FlashcardStore that runs its queries in tx.
	WithTx(tx *sql.Tx) FlashcardStore
}
