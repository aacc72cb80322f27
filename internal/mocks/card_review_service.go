package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/domain/srs"
	"github.com/studybuddy/studybuddy-api/internal/service/card_review"
)

// SubmitReviewCall records the arguments of one SubmitReview call.
type SubmitReviewCall struct {
	UserID  uuid.UUID
	CardID  uuid.UUID
	Quality srs.Quality
}

// MockCardReviewService implements card_review.CardReviewService for testing
type MockCardReviewService struct {
	SubmitReviewFn func(ctx context.Context, userID, cardID uuid.UUID, quality srs.Quality) (*domain.Flashcard, error)

	// Default response values
	Reviewed *domain.Flashcard
	Err      error

	mu    sync.Mutex
	calls []SubmitReviewCall
}

var _ card_review.CardReviewService = (*MockCardReviewService)(nil)

// SubmitReview implements the card_review.CardReviewService interface
func (m *MockCardReviewService) SubmitReview(
	ctx context.Context,
	userID uuid.UUID,
	cardID uuid.UUID,
	quality srs.Quality,
) (*domain.Flashcard, error) {
	m.mu.Lock()
	m.calls = append(m.calls, SubmitReviewCall{UserID: userID, CardID: cardID, Quality: quality})
	m.mu.Unlock()

	if m.SubmitReviewFn != nil {
		return m.SubmitReviewFn(ctx, userID, cardID, quality)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Reviewed, nil
}

// Calls returns every SubmitReview call so far.
func (m *MockCardReviewService) Calls() []SubmitReviewCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SubmitReviewCall, len(m.calls))
	copy(out, m.calls)
	return out
}
