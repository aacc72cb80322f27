package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/studybuddy/studybuddy-api/internal/api/shared"
	"github.com/studybuddy/studybuddy-api/internal/domain/srs"
	"github.com/studybuddy/studybuddy-api/internal/platform/logger"
	"github.com/studybuddy/studybuddy-api/internal/service"
	"github.com/studybuddy/studybuddy-api/internal/service/card_review"
)

// FlashcardHandler handles flashcard HTTP requests.
type FlashcardHandler struct {
	flashcards service.FlashcardService
	reviews    card_review.CardReviewService
	now        func() time.Time
	logger     *slog.Logger
}

// NewFlashcardHandler creates a new FlashcardHandler.
func NewFlashcardHandler(
	flashcards service.FlashcardService,
	reviews card_review.CardReviewService,
	logger *slog.Logger,
) *FlashcardHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for FlashcardHandler")
	}
	return &FlashcardHandler{
		flashcards: flashcards,
		reviews:    reviews,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.With(slog.String("component", "flashcard_handler")),
	}
}

// ListFlashcards handles GET /flashcards?document_id=.
func (h *FlashcardHandler) ListFlashcards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	documentID, err := getOptionalQueryUUID(r, "document_id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	cards, err := h.flashcards.ListFlashcards(r.Context(), userID, documentID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch flashcards")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, flashcardsToResponse(cards))
}

// CreateFlashcards handles POST /flashcards.
func (h *FlashcardHandler) CreateFlashcards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req CreateFlashcardsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cards, err := h.flashcards.CreateFlashcards(r.Context(), userID, req.DocumentID, draftsFromRequest(req.Flashcards))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create flashcards")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, flashcardsToResponse(cards))
}

// GenerateFlashcards handles POST /flashcards/generate.
func (h *FlashcardHandler) GenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req GenerateFlashcardsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cards, err := h.flashcards.GenerateFlashcards(r.Context(), userID, req.DocumentID, req.Text, req.MaxCards)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate flashcards")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, flashcardsToResponse(cards))
}

// ListDueCards handles GET /flashcards/due?document_id=&limit=.
func (h *FlashcardHandler) ListDueCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	documentID, err := getOptionalQueryUUID(r, "document_id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	limit, err := getLimit(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	cards, err := h.flashcards.ListDueCards(r.Context(), userID, documentID, h.now(), limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch due flashcards")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, flashcardsToResponse(cards))
}

// GetFlashcard handles GET /flashcards/{id}.
func (h *FlashcardHandler) GetFlashcard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	card, err := h.flashcards.GetFlashcard(r.Context(), userID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch flashcard")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, flashcardToResponse(card))
}

// SubmitReview handles POST /flashcards/{id}/review and PATCH /flashcards/{id}.
// The body is {"quality": 0..5}.
func (h *FlashcardHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	card, err := h.reviews.SubmitReview(r.Context(), userID, cardID, srs.Quality(*req.Quality))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit review")
		return
	}

	log.Debug("review submitted",
		slog.String("card_id", cardID.String()),
		slog.Int("quality", *req.Quality))
	shared.RespondWithJSON(w, r, http.StatusOK, flashcardToResponse(card))
}

// DeleteFlashcard handles DELETE /flashcards/{id}.
func (h *FlashcardHandler) DeleteFlashcard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.flashcards.DeleteFlashcard(r.Context(), userID, cardID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete flashcard")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDocumentFlashcards handles DELETE /documents/{documentID}/flashcards.
func (h *FlashcardHandler) DeleteDocumentFlashcards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, documentID, ok := handleUserIDAndPathUUID(w, r, "documentID", log)
	if !ok {
		return
	}

	deleted, err := h.flashcards.DeleteDocumentFlashcards(r.Context(), userID, documentID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete flashcards")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, DeleteDocumentFlashcardsResponse{Deleted: deleted})
}
