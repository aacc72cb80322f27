package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/domain/srs"
	"github.com/studybuddy/studybuddy-api/internal/platform/logger"
	"github.com/studybuddy/studybuddy-api/internal/store"
)

const flashcardColumns = `id, user_id, document_id, front, back,
	ease_factor, interval_days, repetitions, next_review_at, last_reviewed_at,
	version, created_at, updated_at`

const flashcardColumnCount = 13

// PostgresFlashcardStore implements the store.FlashcardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresFlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFlashcardStore creates a new PostgreSQL implementation of the FlashcardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresFlashcardStore(db store.DBTX, logger *slog.Logger) *PostgresFlashcardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "flashcard_store")),
	}
}

// Ensure PostgresFlashcardStore implements store.FlashcardStore interface
var _ store.FlashcardStore = (*PostgresFlashcardStore)(nil)

// WithTx implements store.FlashcardStore.WithTx
func (s *PostgresFlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return &PostgresFlashcardStore{db: tx, logger: s.logger}
}

// CreateMultiple implements store.FlashcardStore.CreateMultiple
// All cards are validated first and then written with a single INSERT, so the
// batch lands completely or not at all even outside a transaction.
func (s *PostgresFlashcardStore) CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(cards) == 0 {
		log.Debug("no flashcards to create")
		return nil
	}

	for i, card := range cards {
		if err := card.Validate(); err != nil {
			log.Warn("flashcard validation failed during create",
				slog.Int("index", i),
				slog.String("error", err.Error()))
			return err
		}
	}

	var b strings.Builder
	b.WriteString("INSERT INTO flashcards (" + flashcardColumns + ") VALUES ")
	args := make([]any, 0, len(cards)*flashcardColumnCount)
	for i, card := range cards {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := 0; j < flashcardColumnCount; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", i*flashcardColumnCount+j+1)
		}
		b.WriteString(")")
		args = append(args, insertArgs(card)...)
	}

	if _, err := s.db.ExecContext(ctx, b.String(), args...); err != nil {
		log.Error("failed to create flashcards",
			slog.Int("count", len(cards)),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	log.Debug("flashcards created", slog.Int("count", len(cards)))
	return nil
}

// GetByID implements store.FlashcardStore.GetByID
func (s *PostgresFlashcardStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Flashcard, error) {
	return s.get(ctx, userID, id, "")
}

// GetForUpdate implements store.FlashcardStore.GetForUpdate
// The row stays locked until the surrounding transaction ends.
func (s *PostgresFlashcardStore) GetForUpdate(ctx context.Context, userID, id uuid.UUID) (*domain.Flashcard, error) {
	return s.get(ctx, userID, id, " FOR UPDATE")
}

func (s *PostgresFlashcardStore) get(ctx context.Context, userID, id uuid.UUID, lock string) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := "SELECT " + flashcardColumns + " FROM flashcards WHERE id = $1 AND user_id = $2" + lock

	card, err := scanFlashcard(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("flashcard not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get flashcard",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, MapError(err)
	}
	return card, nil
}

// UpdateState implements store.FlashcardStore.UpdateState
func (s *PostgresFlashcardStore) UpdateState(ctx context.Context, card *domain.Flashcard, expectedVersion int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if card.Version <= expectedVersion {
		return fmt.Errorf("%w: version %d does not advance %d",
			store.ErrInvalidEntity, card.Version, expectedVersion)
	}

	var lastReviewed sql.NullTime
	if t, ok := card.State.LastReviewedAt(); ok {
		lastReviewed = sql.NullTime{Time: t.UTC(), Valid: true}
	}

	query := `
		UPDATE flashcards
		SET ease_factor = $1, interval_days = $2, repetitions = $3,
			next_review_at = $4, last_reviewed_at = $5, version = $6, updated_at = $7
		WHERE id = $8 AND user_id = $9 AND version = $10
	`

	result, err := s.db.ExecContext(ctx, query,
		card.State.EaseFactor(),
		card.State.IntervalDays(),
		card.State.Repetitions(),
		card.State.NextReviewAt().UTC(),
		lastReviewed,
		card.Version,
		card.UpdatedAt.UTC(),
		card.ID,
		card.UserID,
		expectedVersion,
	)
	if err != nil {
		log.Error("failed to update flashcard state",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		log.Debug("flashcard state updated",
			slog.String("card_id", card.ID.String()),
			slog.Int("version", card.Version))
		return nil
	}

	var current int
	err = s.db.QueryRowContext(ctx,
		"SELECT version FROM flashcards WHERE id = $1 AND user_id = $2",
		card.ID, card.UserID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrCardNotFound
	}
	if err != nil {
		return MapError(err)
	}

	log.Info("optimistic update lost",
		slog.String("card_id", card.ID.String()),
		slog.Int("expected_version", expectedVersion),
		slog.Int("stored_version", current))
	return store.ErrConcurrencyConflict
}

// ListByUser implements store.FlashcardStore.ListByUser
func (s *PostgresFlashcardStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	documentID *uuid.UUID,
) ([]*domain.Flashcard, error) {
	query := "SELECT " + flashcardColumns + " FROM flashcards WHERE user_id = $1"
	args := []any{userID}
	if documentID != nil {
		query += " AND document_id = $2"
		args = append(args, *documentID)
	}
	query += " ORDER BY created_at DESC, seq DESC"

	return s.query(ctx, "list flashcards", query, args...)
}

// QueryDue implements store.FlashcardStore.QueryDue
func (s *PostgresFlashcardStore) QueryDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	documentID *uuid.UUID,
	limit int,
) ([]*domain.Flashcard, error) {
	query := "SELECT " + flashcardColumns + " FROM flashcards WHERE user_id = $1 AND next_review_at <= $2"
	args := []any{userID, now.UTC()}
	if documentID != nil {
		args = append(args, *documentID)
		query += fmt.Sprintf(" AND document_id = $%d", len(args))
	}
	query += " ORDER BY next_review_at ASC, created_at ASC, seq ASC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return s.query(ctx, "query due flashcards", query, args...)
}

// Delete implements store.FlashcardStore.Delete
func (s *PostgresFlashcardStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM flashcards WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		log.Error("failed to delete flashcard",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrCardNotFound); err != nil {
		return err
	}

	log.Debug("flashcard deleted", slog.String("card_id", id.String()))
	return nil
}

// DeleteByDocument implements store.FlashcardStore.DeleteByDocument
func (s *PostgresFlashcardStore) DeleteByDocument(ctx context.Context, userID, documentID uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM flashcards WHERE user_id = $1 AND document_id = $2", userID, documentID)
	if err != nil {
		log.Error("failed to delete document flashcards",
			slog.String("error", err.Error()),
			slog.String("document_id", documentID.String()))
		return 0, MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Debug("document flashcards deleted",
		slog.String("document_id", documentID.String()),
		slog.Int64("count", n))
	return n, nil
}

func (s *PostgresFlashcardStore) query(ctx context.Context, op, query string, args ...any) ([]*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to "+op, slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	cards := []*domain.Flashcard{}
	for rows.Next() {
		card, err := scanFlashcard(rows)
		if err != nil {
			log.Error("failed to scan flashcard", slog.String("error", err.Error()))
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		log.Error("failed to iterate flashcards", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug(op, slog.Int("count", len(cards)))
	return cards, nil
}

func insertArgs(card *domain.Flashcard) []any {
	var documentID uuid.NullUUID
	if card.DocumentID != nil {
		documentID = uuid.NullUUID{UUID: *card.DocumentID, Valid: true}
	}
	var lastReviewed sql.NullTime
	if t, ok := card.State.LastReviewedAt(); ok {
		lastReviewed = sql.NullTime{Time: t.UTC(), Valid: true}
	}
	return []any{
		card.ID,
		card.UserID,
		documentID,
		card.Front,
		card.Back,
		card.State.EaseFactor(),
		card.State.IntervalDays(),
		card.State.Repetitions(),
		card.State.NextReviewAt().UTC(),
		lastReviewed,
		card.Version,
		card.CreatedAt.UTC(),
		card.UpdatedAt.UTC(),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlashcard(row rowScanner) (*domain.Flashcard, error) {
	var (
		card         domain.Flashcard
		documentID   uuid.NullUUID
		ease         float64
		interval     int
		reps         int
		nextReview   time.Time
		lastReviewed sql.NullTime
	)

	if err := row.Scan(
		&card.ID,
		&card.UserID,
		&documentID,
		&card.Front,
		&card.Back,
		&ease,
		&interval,
		&reps,
		&nextReview,
		&lastReviewed,
		&card.Version,
		&card.CreatedAt,
		&card.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if documentID.Valid {
		id := documentID.UUID
		card.DocumentID = &id
	}

	var last *time.Time
	if lastReviewed.Valid {
		t := lastReviewed.Time.UTC()
		last = &t
	}

	state, err := srs.Restore(ease, interval, reps, nextReview.UTC(), last)
	if err != nil {
		return nil, fmt.Errorf("flashcard %s: %w", card.ID, err)
	}
	card.State = state
	card.CreatedAt = card.CreatedAt.UTC()
	card.UpdatedAt = card.UpdatedAt.UTC()

	return &card, nil
}
