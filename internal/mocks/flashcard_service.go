package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/service"
)

// MockFlashcardService implements service.FlashcardService with testify/mock.
type MockFlashcardService struct {
	mock.Mock
}

var _ service.FlashcardService = (*MockFlashcardService)(nil)

func flashcards(v interface{}) []*domain.Flashcard {
	if v == nil {
		return nil
	}
	return v.([]*domain.Flashcard)
}

// CreateFlashcards implements service.FlashcardService.
func (m *MockFlashcardService) CreateFlashcards(
	ctx context.Context,
	userID uuid.UUID,
	documentID *uuid.UUID,
	drafts []domain.CardDraft,
) ([]*domain.Flashcard, error) {
	args := m.Called(ctx, userID, documentID, drafts)
	return flashcards(args.Get(0)), args.Error(1)
}

// GenerateFlashcards implements service.FlashcardService.
func (m *MockFlashcardService) GenerateFlashcards(
	ctx context.Context,
	userID uuid.UUID,
	documentID *uuid.UUID,
	text string,
	maxCards int,
) ([]*domain.Flashcard, error) {
	args := m.Called(ctx, userID, documentID, text, maxCards)
	return flashcards(args.Get(0)), args.Error(1)
}

// GetFlashcard implements service.FlashcardService.
func (m *MockFlashcardService) GetFlashcard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Flashcard, error) {
	args := m.Called(ctx, userID, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flashcard), args.Error(1)
}

// ListFlashcards implements service.FlashcardService.
func (m *MockFlashcardService) ListFlashcards(
	ctx context.Context,
	userID uuid.UUID,
	documentID *uuid.UUID,
) ([]*domain.Flashcard, error) {
	args := m.Called(ctx, userID, documentID)
	return flashcards(args.Get(0)), args.Error(1)
}

// ListDueCards implements service.FlashcardService.
func (m *MockFlashcardService) ListDueCards(
	ctx context.Context,
	userID uuid.UUID,
	documentID *uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.Flashcard, error) {
	args := m.Called(ctx, userID, documentID, now, limit)
	return flashcards(args.Get(0)), args.Error(1)
}

// DeleteFlashcard implements service.FlashcardService.
func (m *MockFlashcardService) DeleteFlashcard(ctx context.Context, userID, cardID uuid.UUID) error {
	return m.Called(ctx, userID, cardID).Error(0)
}

// DeleteDocumentFlashcards implements service.FlashcardService.
func (m *MockFlashcardService) DeleteDocumentFlashcards(ctx context.Context, userID, documentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID, documentID)
	return args.Get(0).(int64), args.Error(1)
}
