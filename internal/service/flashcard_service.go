package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/events"
	"github.com/studybuddy/studybuddy-api/internal/generation"
	"github.com/studybuddy/studybuddy-api/internal/platform/logger"
	"github.com/studybuddy/studybuddy-api/internal/store"
)

// MaxBatchSize bounds the number of cards created by one request.
const MaxBatchSize = 100

// FlashcardService provides flashcard management operations. Every
// operation is scoped to the calling user.
type FlashcardService interface {
	// CreateFlashcards validates every draft and saves the whole batch in one
	// transaction. The first invalid draft fails the batch with a
	// *domain.ValidationError carrying its index; nothing is saved.
	CreateFlashcards(
		ctx context.Context,
		userID uuid.UUID,
		documentID *uuid.UUID,
		drafts []domain.CardDraft,
	) ([]*domain.Flashcard, error)

	// GenerateFlashcards asks the configured generator for drafts derived
	// from text and creates them like CreateFlashcards.
	// Returns generation.ErrUnavailable when no generator is configured.
	GenerateFlashcards(
		ctx context.Context,
		userID uuid.UUID,
		documentID *uuid.UUID,
		text string,
		maxCards int,
	) ([]*domain.Flashcard, error)

	// GetFlashcard returns one card. Returns store.ErrCardNotFound for a
	// missing card and for another user's card alike.
	GetFlashcard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Flashcard, error)

	// ListFlashcards returns the user's cards, newest first.
	ListFlashcards(ctx context.Context, userID uuid.UUID, documentID *uuid.UUID) ([]*domain.Flashcard, error)

	// ListDueCards returns the cards due at now, most overdue first.
	// limit <= 0 means no limit.
	ListDueCards(
		ctx context.Context,
		userID uuid.UUID,
		documentID *uuid.UUID,
		now time.Time,
		limit int,
	) ([]*domain.Flashcard, error)

	// DeleteFlashcard removes one card.
	DeleteFlashcard(ctx context.Context, userID, cardID uuid.UUID) error

	// DeleteDocumentFlashcards removes every card of a document.
	DeleteDocumentFlashcards(ctx context.Context, userID, documentID uuid.UUID) (int64, error)
}

// FlashcardServiceOption configures a FlashcardService.
type FlashcardServiceOption func(*flashcardServiceImpl)

// WithGenerator enables GenerateFlashcards.
func WithGenerator(generator generation.Generator) FlashcardServiceOption {
	return func(s *flashcardServiceImpl) { s.generator = generator }
}

// WithEventEmitter publishes a flashcards.created event after every batch.
func WithEventEmitter(emitter events.EventEmitter) FlashcardServiceOption {
	return func(s *flashcardServiceImpl) { s.emitter = emitter }
}

// WithClock replaces the wall clock used to timestamp new cards.
func WithClock(now func() time.Time) FlashcardServiceOption {
	return func(s *flashcardServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

var _ FlashcardService = (*flashcardServiceImpl)(nil)

type flashcardServiceImpl struct {
	db        *sql.DB
	cards     store.FlashcardStore
	generator generation.Generator
	emitter   events.EventEmitter
	now       func() time.Time
	logger    *slog.Logger
}

// NewFlashcardService creates a new FlashcardService.
// It returns an error if any of the required dependencies are nil.
func NewFlashcardService(
	db *sql.DB,
	cards store.FlashcardStore,
	logger *slog.Logger,
	opts ...FlashcardServiceOption,
) (FlashcardService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if cards == nil {
		return nil, domain.NewValidationError("cards", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &flashcardServiceImpl{
		db:     db,
		cards:  cards,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With(slog.String("component", "flashcard_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateFlashcards implements FlashcardService.CreateFlashcards.
func (s *flashcardServiceImpl) CreateFlashcards(
	ctx context.Context,
	userID uuid.UUID,
	documentID *uuid.UUID,
	drafts []domain.CardDraft,
) ([]*domain.Flashcard, error) {
	return s.create(ctx, userID, documentID, drafts, false)
}

func (s *flashcardServiceImpl) create(
	ctx context.Context,
	userID uuid.UUID,
	documentID *uuid.UUID,
	drafts []domain.CardDraft,
	generated bool,
) ([]*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(drafts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d cards, at most %d allowed", ErrBatchTooLarge, len(drafts), MaxBatchSize)
	}

	cards, err := domain.NewFlashcards(userID, documentID, drafts, s.now())
	if err != nil {
		log.Debug("rejected flashcard batch", slog.String("error", err.Error()))
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.cards.WithTx(tx).CreateMultiple(ctx, cards)
	})
	if err != nil {
		log.Error("failed to save flashcards",
			slog.String("error", err.Error()),
			slog.Int("card_count", len(cards)))
		return nil, NewFlashcardServiceError("create_flashcards", "failed to save cards", err)
	}

	log.Info("created flashcards",
		slog.String("user_id", userID.String()),
		slog.Int("card_count", len(cards)),
		slog.Bool("generated", generated))

	s.emitCreated(ctx, log, userID, documentID, cards, generated)
	return cards, nil
}

func (s *flashcardServiceImpl) emitCreated(
	ctx context.Context,
	log *slog.Logger,
	userID uuid.UUID,
	documentID *uuid.UUID,
	cards []*domain.Flashcard,
	generated bool,
) {
	if s.emitter == nil {
		return
	}

	event, err := events.NewEvent(events.TypeFlashcardsCreated, events.FlashcardsCreated{
		UserID:       userID,
		DocumentID:   documentID,
		FlashcardIDs: lo.Map(cards, func(c *domain.Flashcard, _ int) uuid.UUID { return c.ID }),
		Generated:    generated,
	})
	if err != nil {
		log.Error("failed to build flashcards created event", slog.String("error", err.Error()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit flashcards created event", slog.String("error", err.Error()))
	}
}

// GenerateFlashcards implements FlashcardService.GenerateFlashcards.
func (s *flashcardServiceImpl) GenerateFlashcards(
	ctx context.Context,
	userID uuid.UUID,
	documentID *uuid.UUID,
	text string,
	maxCards int,
) ([]*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.generator == nil {
		return nil, generation.ErrUnavailable
	}
	if utf8.RuneCountInString(text) > generation.MaxSourceTextLength {
		return nil, fmt.Errorf("%w: at most %d characters allowed", ErrTextTooLong, generation.MaxSourceTextLength)
	}
	if maxCards <= 0 || maxCards > MaxBatchSize {
		maxCards = MaxBatchSize
	}

	drafts, err := s.generator.GenerateCards(ctx, text, maxCards)
	if err != nil {
		log.Warn("flashcard generation failed",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}
	if len(drafts) > maxCards {
		drafts = drafts[:maxCards]
	}

	return s.create(ctx, userID, documentID, drafts, true)
}

// GetFlashcard implements FlashcardService.GetFlashcard.
func (s *flashcardServiceImpl) GetFlashcard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Flashcard, error) {
	card, err := s.cards.GetByID(ctx, userID, cardID)
	if err != nil {
		return nil, s.wrapStoreError(ctx, "get_flashcard", err)
	}
	return card, nil
}

// ListFlashcards implements FlashcardService.ListFlashcards.
func (s *flashcardServiceImpl) ListFlashcards(
	ctx context.Context,
	userID uuid.UUID,
	documentID *uuid.UUID,
) ([]*domain.Flashcard, error) {
	cards, err := s.cards.ListByUser(ctx, userID, documentID)
	if err != nil {
		return nil, s.wrapStoreError(ctx, "list_flashcards", err)
	}
	return cards, nil
}

// ListDueCards implements FlashcardService.ListDueCards.
func (s *flashcardServiceImpl) ListDueCards(
	ctx context.Context,
	userID uuid.UUID,
	documentID *uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.Flashcard, error) {
	if now.IsZero() {
		now = s.now()
	}
	cards, err := s.cards.QueryDue(ctx, userID, now, documentID, limit)
	if err != nil {
		return nil, s.wrapStoreError(ctx, "list_due_cards", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("listed due cards",
		slog.String("user_id", userID.String()),
		slog.Int("due_count", len(cards)))
	return cards, nil
}

// DeleteFlashcard implements FlashcardService.DeleteFlashcard.
func (s *flashcardServiceImpl) DeleteFlashcard(ctx context.Context, userID, cardID uuid.UUID) error {
	if err := s.cards.Delete(ctx, userID, cardID); err != nil {
		return s.wrapStoreError(ctx, "delete_flashcard", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("deleted flashcard",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()))
	return nil
}

// DeleteDocumentFlashcards implements FlashcardService.DeleteDocumentFlashcards.
func (s *flashcardServiceImpl) DeleteDocumentFlashcards(
	ctx context.Context,
	userID, documentID uuid.UUID,
) (int64, error) {
	deleted, err := s.cards.DeleteByDocument(ctx, userID, documentID)
	if err != nil {
		return 0, s.wrapStoreError(ctx, "delete_document_flashcards", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("deleted document flashcards",
		slog.String("user_id", userID.String()),
		slog.String("document_id", documentID.String()),
		slog.Int64("deleted", deleted))
	return deleted, nil
}

// wrapStoreError passes not-found through and wraps everything else.
func (s *flashcardServiceImpl) wrapStoreError(ctx context.Context, operation string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return err
	}
	logger.FromContextOrDefault(ctx, s.logger).Error("flashcard store operation failed",
		slog.String("operation", operation),
		slog.String("error", err.Error()))
	return NewFlashcardServiceError(operation, "store operation failed", err)
}
