package testutils

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/platform/sqlite"
	"github.com/studybuddy/studybuddy-api/internal/store"
)

// CardOption customizes a card built by NewTestCard.
type CardOption func(*cardOptions)

type cardOptions struct {
	documentID *uuid.UUID
	front      string
	back       string
	createdAt  time.Time
}

// WithDocumentID attaches the card to a document.
func WithDocumentID(id uuid.UUID) CardOption {
	return func(o *cardOptions) { o.documentID = &id }
}

// WithContent sets both sides of the card.
func WithContent(front, back string) CardOption {
	return func(o *cardOptions) {
		o.front = front
		o.back = back
	}
}

// WithCreatedAt sets the creation time, which is also when a new card
// becomes due.
func WithCreatedAt(at time.Time) CardOption {
	return func(o *cardOptions) { o.createdAt = at }
}

// NewTestCard builds a valid, unsaved card owned by userID.
func NewTestCard(t testing.TB, userID uuid.UUID, opts ...CardOption) *domain.Flashcard {
	t.Helper()
	o := cardOptions{
		front:     "What is the capital of France?",
		back:      "Paris",
		createdAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	card, err := domain.NewFlashcard(userID, o.documentID, domain.CardDraft{Front: o.front, Back: o.back}, o.createdAt)
	require.NoError(t, err)
	return card
}

// MustInsertCard saves a new card for userID and returns it.
func MustInsertCard(t testing.TB, db *sql.DB, userID uuid.UUID, opts ...CardOption) *domain.Flashcard {
	t.Helper()
	card := NewTestCard(t, userID, opts...)

	cards := sqlite.NewFlashcardStore(db, nil)
	err := store.RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		return cards.WithTx(tx).CreateMultiple(ctx, []*domain.Flashcard{card})
	})
	require.NoError(t, err)
	return card
}
