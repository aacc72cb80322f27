package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/studybuddy/studybuddy-api/internal/domain"
)

// CardDraftRequest is one card in a creation request. Content rules are
// enforced by the domain so that the failing index can be reported.
type CardDraftRequest struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// CreateFlashcardsRequest defines the payload for batch card creation.
type CreateFlashcardsRequest struct {
	DocumentID *uuid.UUID         `json:"document_id,omitempty"`
	Flashcards []CardDraftRequest `json:"flashcards" validate:"required"`
}

// GenerateFlashcardsRequest defines the payload for AI card generation.
type GenerateFlashcardsRequest struct {
	DocumentID *uuid.UUID `json:"document_id,omitempty"`
	Text       string     `json:"text"                  validate:"required"`
	MaxCards   int        `json:"max_cards,omitempty"   validate:"omitempty,min=1,max=100"`
}

// SubmitReviewRequest defines the payload for grading a card.
// Quality is a pointer so that a missing grade is distinguishable from 0.
type SubmitReviewRequest struct {
	Quality *int `json:"quality" validate:"required,min=0,max=5"`
}

// FlashcardResponse represents a card and its review schedule.
type FlashcardResponse struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	DocumentID     *uuid.UUID `json:"document_id"`
	Front          string     `json:"front"`
	Back           string     `json:"back"`
	EaseFactor     float64    `json:"ease_factor"`
	IntervalDays   int        `json:"interval_days"`
	Repetitions    int        `json:"repetitions"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"`
	Version        int        `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FlashcardListResponse wraps a list of cards.
type FlashcardListResponse struct {
	Flashcards []FlashcardResponse `json:"flashcards"`
}

// DeleteDocumentFlashcardsResponse reports a document cascade.
type DeleteDocumentFlashcardsResponse struct {
	Deleted int64 `json:"deleted"`
}

// DailyActivityResponse is one day of study activity.
type DailyActivityResponse struct {
	Day     string `json:"day"`
	Reviews int    `json:"reviews"`
	Lapses  int    `json:"lapses"`
}

// ActivityResponse summarizes recent study activity.
type ActivityResponse struct {
	TodayReviews int                     `json:"today_reviews"`
	StreakDays   int                     `json:"streak_days"`
	Days         []DailyActivityResponse `json:"days"`
}

func flashcardToResponse(card *domain.Flashcard) FlashcardResponse {
	resp := FlashcardResponse{
		ID:           card.ID,
		UserID:       card.UserID,
		DocumentID:   card.DocumentID,
		Front:        card.Front,
		Back:         card.Back,
		EaseFactor:   card.State.EaseFactor(),
		IntervalDays: card.State.IntervalDays(),
		Repetitions:  card.State.Repetitions(),
		NextReviewAt: card.State.NextReviewAt(),
		Version:      card.Version,
		CreatedAt:    card.CreatedAt,
		UpdatedAt:    card.UpdatedAt,
	}
	if last, ok := card.State.LastReviewedAt(); ok {
		resp.LastReviewedAt = &last
	}
	return resp
}

func flashcardsToResponse(cards []*domain.Flashcard) FlashcardListResponse {
	return FlashcardListResponse{
		Flashcards: lo.Map(cards, func(c *domain.Flashcard, _ int) FlashcardResponse {
			return flashcardToResponse(c)
		}),
	}
}

func draftsFromRequest(reqs []CardDraftRequest) []domain.CardDraft {
	return lo.Map(reqs, func(r CardDraftRequest, _ int) domain.CardDraft {
		return domain.CardDraft{Front: r.Front, Back: r.Back}
	})
}

func activityToResponse(summary domain.ActivitySummary) ActivityResponse {
	return ActivityResponse{
		TodayReviews: summary.TodayReviews,
		StreakDays:   summary.StreakDays,
		Days: lo.Map(summary.Days, func(d domain.DailyActivity, _ int) DailyActivityResponse {
			return DailyActivityResponse{
				Day:     d.Day.Format(time.DateOnly),
				Reviews: d.Reviews,
				Lapses:  d.Lapses,
			}
		}),
	}
}
