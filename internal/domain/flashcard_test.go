package domain_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/domain/srs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

func TestNewFlashcard(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	docID := uuid.New()

	card, err := domain.NewFlashcard(userID, &docID, domain.CardDraft{Front: "  Q  ", Back: "A"}, now)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, card.ID)
	assert.Equal(t, userID, card.UserID)
	require.NotNil(t, card.DocumentID)
	assert.Equal(t, docID, *card.DocumentID)
	assert.Equal(t, "Q", card.Front)
	assert.Equal(t, "A", card.Back)
	assert.Equal(t, 1, card.Version)
	assert.Equal(t, srs.NewState(now), card.State)
	assert.Equal(t, now, card.CreatedAt)
	assert.NoError(t, card.Validate())

	// the document pointer is copied
	docID = uuid.New()
	assert.NotEqual(t, docID, *card.DocumentID)
}

func TestNewFlashcard_Invalid(t *testing.T) {
	t.Parallel()

	_, err := domain.NewFlashcard(uuid.Nil, nil, domain.CardDraft{Front: "Q", Back: "A"}, now)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = domain.NewFlashcard(uuid.New(), nil, domain.CardDraft{Front: "Q", Back: "   "}, now)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrEmptyContent)

	_, err = domain.NewFlashcard(uuid.New(), nil,
		domain.CardDraft{Front: strings.Repeat("x", domain.MaxCardSideLength+1), Back: "A"}, now)
	assert.ErrorIs(t, err, domain.ErrContentTooLong)
}

func TestNewFlashcards_AllOrNothing(t *testing.T) {
	t.Parallel()

	drafts := []domain.CardDraft{
		{Front: "Q1", Back: "A1"},
		{Front: "Q2", Back: "A2"},
		{Front: "", Back: "A3"},
		{Front: "Q4", Back: ""},
	}

	cards, err := domain.NewFlashcards(uuid.New(), nil, drafts, now)
	require.Error(t, err)
	assert.Nil(t, cards)

	var validationErr *domain.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, 2, validationErr.Index)
	assert.Equal(t, "front", validationErr.Field)
	assert.Contains(t, err.Error(), "item 2")
}

func TestNewFlashcards(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cards, err := domain.NewFlashcards(userID, nil, []domain.CardDraft{
		{Front: "Q1", Back: "A1"},
		{Front: "Q2", Back: "A2"},
	}, now)
	require.NoError(t, err)
	require.Len(t, cards, 2)

	for _, card := range cards {
		assert.Equal(t, userID, card.UserID)
		assert.Nil(t, card.DocumentID)
		assert.True(t, card.State.IsDue(now))
	}
	assert.NotEqual(t, cards[0].ID, cards[1].ID)

	_, err = domain.NewFlashcards(userID, nil, nil, now)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFlashcard_WithState(t *testing.T) {
	t.Parallel()

	card, err := domain.NewFlashcard(uuid.New(), nil, domain.CardDraft{Front: "Q", Back: "A"}, now)
	require.NoError(t, err)

	later := now.Add(time.Hour)
	state, err := srs.Review(card.State, srs.QualityPerfect, later)
	require.NoError(t, err)

	updated := card.WithState(state, later)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, later, updated.UpdatedAt)
	assert.Equal(t, state, updated.State)

	assert.Equal(t, 1, card.Version, "receiver is unchanged")
	assert.True(t, card.State.IsNew())
	assert.True(t, updated.BelongsTo(card.UserID))
	assert.False(t, updated.BelongsTo(uuid.New()))
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := domain.NewValidationError("document_id", "has invalid format", domain.ErrInvalidID)
	assert.Equal(t, "document_id has invalid format", err.Error())
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	plain := domain.NewValidationError("quality", "is required", nil)
	assert.ErrorIs(t, plain, domain.ErrValidation)
	assert.NotErrorIs(t, plain, domain.ErrInvalidID)
}
