// Package card_review records review grades against flashcards.
//
// A review reads the card, asks the scheduler for the next state and writes
// it back in one transaction. The write is guarded by the card's version, so
// two concurrent reviews of the same card can never both apply to the same
// starting state.
package card_review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/domain/srs"
	"github.com/studybuddy/studybuddy-api/internal/events"
	"github.com/studybuddy/studybuddy-api/internal/platform/logger"
	"github.com/studybuddy/studybuddy-api/internal/store"
)

// maxAttempts is one try plus one retry on a version conflict.
const maxAttempts = 2

// CardReviewService applies recall grades to flashcards.
type CardReviewService interface {
	// SubmitReview grades the card cardID owned by userID and returns the
	// card with its new schedule.
	//
	// Errors:
	//   - ErrInvalidQuality when quality is outside 0..5; storage is not touched
	//   - ErrCardNotFound when the card does not exist or belongs to someone else
	//   - ErrConcurrencyConflict when the card changed concurrently twice in a row
	SubmitReview(
		ctx context.Context,
		userID uuid.UUID,
		cardID uuid.UUID,
		quality srs.Quality,
	) (*domain.Flashcard, error)
}

// Option configures the service.
type Option func(*cardReviewServiceImpl)

// WithClock replaces the wall clock used to timestamp reviews.
func WithClock(now func() time.Time) Option {
	return func(s *cardReviewServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// WithEmitter publishes a flashcard.reviewed event after every committed review.
func WithEmitter(emitter events.EventEmitter) Option {
	return func(s *cardReviewServiceImpl) {
		s.emitter = emitter
	}
}

var _ CardReviewService = (*cardReviewServiceImpl)(nil)

type cardReviewServiceImpl struct {
	db        *sql.DB
	cards     store.FlashcardStore
	scheduler srs.Scheduler
	emitter   events.EventEmitter
	now       func() time.Time
	logger    *slog.Logger
}

// NewCardReviewService creates a CardReviewService. db opens the transaction
// each review runs in; cards is bound to it with WithTx.
func NewCardReviewService(
	db *sql.DB,
	cards store.FlashcardStore,
	scheduler srs.Scheduler,
	logger *slog.Logger,
	opts ...Option,
) (CardReviewService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if cards == nil {
		return nil, domain.NewValidationError("cards", "cannot be nil", domain.ErrValidation)
	}
	if scheduler == nil {
		scheduler = srs.NewDefaultScheduler()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &cardReviewServiceImpl{
		db:        db,
		cards:     cards,
		scheduler: scheduler,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.With(slog.String("component", "card_review_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SubmitReview implements CardReviewService.
func (s *cardReviewServiceImpl) SubmitReview(
	ctx context.Context,
	userID uuid.UUID,
	cardID uuid.UUID,
	quality srs.Quality,
) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()))

	if err := quality.Validate(); err != nil {
		log.Warn("rejected review grade", slog.Int("quality", int(quality)))
		return nil, err
	}

	now := s.now()

	var (
		reviewed *domain.Flashcard
		err      error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		reviewed, err = s.reviewOnce(ctx, userID, cardID, quality, now)
		if err == nil || !errors.Is(err, store.ErrConcurrencyConflict) {
			break
		}
		log.Info("card changed during review",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts))
	}

	if err != nil {
		switch {
		case errors.Is(err, store.ErrCardNotFound):
			log.Debug("card not found for review")
			return nil, err
		case errors.Is(err, store.ErrConcurrencyConflict):
			log.Warn("giving up on review after repeated conflicts")
			return nil, NewSubmitReviewError("card was modified concurrently", err)
		default:
			log.Error("failed to record review", slog.String("error", err.Error()))
			return nil, NewSubmitReviewError("failed to record review", err)
		}
	}

	log.Debug("review recorded",
		slog.Int("quality", int(quality)),
		slog.Int("interval_days", reviewed.State.IntervalDays()),
		slog.Int("version", reviewed.Version))

	s.emitReviewed(ctx, log, reviewed, quality, now)
	return reviewed, nil
}

// reviewOnce reads, schedules and writes the card in a single transaction.
func (s *cardReviewServiceImpl) reviewOnce(
	ctx context.Context,
	userID, cardID uuid.UUID,
	quality srs.Quality,
	now time.Time,
) (*domain.Flashcard, error) {
	var reviewed *domain.Flashcard
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txCards := s.cards.WithTx(tx)

		card, err := txCards.GetForUpdate(ctx, userID, cardID)
		if err != nil {
			return err
		}

		next, err := s.scheduler.Review(card.State, quality, now)
		if err != nil {
			return fmt.Errorf("failed to schedule review: %w", err)
		}

		updated := card.WithState(next, now)
		if err := txCards.UpdateState(ctx, updated, card.Version); err != nil {
			return err
		}
		reviewed = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reviewed, nil
}

// emitReviewed publishes the review for bookkeeping. Failures are logged
// only: the schedule is already committed.
func (s *cardReviewServiceImpl) emitReviewed(
	ctx context.Context,
	log *slog.Logger,
	card *domain.Flashcard,
	quality srs.Quality,
	reviewedAt time.Time,
) {
	if s.emitter == nil {
		return
	}

	event, err := events.NewEvent(events.TypeFlashcardReviewed, events.FlashcardReviewed{
		UserID:       card.UserID,
		FlashcardID:  card.ID,
		Quality:      int(quality),
		Lapsed:       !quality.IsSuccess(srs.DefaultParams()),
		IntervalDays: card.State.IntervalDays(),
		ReviewedAt:   reviewedAt,
	})
	if err != nil {
		log.Error("failed to build review event", slog.String("error", err.Error()))
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit review event",
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
	}
}
