package sqlite

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

// FlashcardStore implements store.FlashcardStore on SQLite.
type FlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewFlashcardStore creates a SQLite FlashcardStore.
// If logger is nil, the default logger is used.
func NewFlashcardStore(db store.DBTX, logger *slog.Logger) *FlashcardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite_flashcard_store")),
	}
}

var _ store.FlashcardStore = (*FlashcardStore)(nil)

// WithTx implements store.FlashcardStore.WithTx.
func (s *FlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return &FlashcardStore{db: tx, logger: s.logger}
}

// CreateMultiple implements store.FlashcardStore.CreateMultiple.
// Every card is validated before the first insert.
func (s *FlashcardStore) CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(cards) == 0 {
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

	query := `INSERT INTO flashcards (` + flashcardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, card := range cards {
		_, err := s.db.ExecContext(ctx, query, insertArgs(card)...)
		if err != nil {
			log.Error("failed to insert flashcard",
				slog.String("card_id", card.ID.String()),
				slog.String("error", err.Error()))
			return MapError(err)
		}
	}

	log.Debug("flashcards created", slog.Int("count", len(cards)))
	return nil
}

// GetByID implements store.FlashcardStore.GetByID.
func (s *FlashcardStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + flashcardColumns + ` FROM flashcards WHERE id = ? AND user_id = ?`
	card, err := scanFlashcard(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("flashcard not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get flashcard",
			slog.String("card_id", id.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return card, nil
}

// GetForUpdate implements store.FlashcardStore.GetForUpdate. SQLite locks the
// whole database for writers, so this is a plain read; UpdateState's version
// check catches interleaved writes.
func (s *FlashcardStore) GetForUpdate(ctx context.Context, userID, id uuid.UUID) (*domain.Flashcard, error) {
	return s.GetByID(ctx, userID, id)
}

// UpdateState implements store.FlashcardStore.UpdateState.
func (s *FlashcardStore) UpdateState(ctx context.Context, card *domain.Flashcard, expectedVersion int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if card.Version <= expectedVersion {
		return fmt.Errorf("%w: version %d does not advance %d",
			store.ErrInvalidEntity, card.Version, expectedVersion)
	}

	var lastReviewed sql.NullString
	if t, ok := card.State.LastReviewedAt(); ok {
		lastReviewed = sql.NullString{String: formatTime(t), Valid: true}
	}

	query := `
		UPDATE flashcards
		SET ease_factor = ?, interval_days = ?, repetitions = ?,
			next_review_at = ?, last_reviewed_at = ?, version = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND version = ?`

	result, err := s.db.ExecContext(ctx, query,
		card.State.EaseFactor(),
		card.State.IntervalDays(),
		card.State.Repetitions(),
		formatTime(card.State.NextReviewAt()),
		lastReviewed,
		card.Version,
		formatTime(card.UpdatedAt),
		card.ID,
		card.UserID,
		expectedVersion,
	)
	if err != nil {
		log.Error("failed to update flashcard state",
			slog.String("card_id", card.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}

	// nothing matched: either the card is gone or its version moved on
	var current int
	err = s.db.QueryRowContext(ctx,
		`SELECT version FROM flashcards WHERE id = ? AND user_id = ?`,
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

// ListByUser implements store.FlashcardStore.ListByUser.
func (s *FlashcardStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	documentID *uuid.UUID,
) ([]*domain.Flashcard, error) {
	var b strings.Builder
	args := []any{userID}
	b.WriteString(`SELECT ` + flashcardColumns + ` FROM flashcards WHERE user_id = ?`)
	if documentID != nil {
		b.WriteString(` AND document_id = ?`)
		args = append(args, *documentID)
	}
	b.WriteString(` ORDER BY created_at DESC, seq DESC`)

	return s.query(ctx, "list flashcards", b.String(), args...)
}

// QueryDue implements store.FlashcardStore.QueryDue.
func (s *FlashcardStore) QueryDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	documentID *uuid.UUID,
	limit int,
) ([]*domain.Flashcard, error) {
	var b strings.Builder
	args := []any{userID, formatTime(now)}
	b.WriteString(`SELECT ` + flashcardColumns + `
		FROM flashcards
		WHERE user_id = ? AND next_review_at <= ?`)
	if documentID != nil {
		b.WriteString(` AND document_id = ?`)
		args = append(args, *documentID)
	}
	b.WriteString(` ORDER BY next_review_at ASC, created_at ASC, seq ASC`)
	if limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	return s.query(ctx, "query due flashcards", b.String(), args...)
}

// Delete implements store.FlashcardStore.Delete.
func (s *FlashcardStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM flashcards WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		log.Error("failed to delete flashcard",
			slog.String("card_id", id.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrCardNotFound)
}

// DeleteByDocument implements store.FlashcardStore.DeleteByDocument.
func (s *FlashcardStore) DeleteByDocument(ctx context.Context, userID, documentID uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM flashcards WHERE user_id = ? AND document_id = ?`, userID, documentID)
	if err != nil {
		log.Error("failed to delete document flashcards",
			slog.String("document_id", documentID.String()),
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (s *FlashcardStore) query(ctx context.Context, op, query string, args ...any) ([]*domain.Flashcard, error) {
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
	return cards, nil
}

func insertArgs(card *domain.Flashcard) []any {
	var documentID uuid.NullUUID
	if card.DocumentID != nil {
		documentID = uuid.NullUUID{UUID: *card.DocumentID, Valid: true}
	}
	var lastReviewed sql.NullString
	if t, ok := card.State.LastReviewedAt(); ok {
		lastReviewed = sql.NullString{String: formatTime(t), Valid: true}
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
		formatTime(card.State.NextReviewAt()),
		lastReviewed,
		card.Version,
		formatTime(card.CreatedAt),
		formatTime(card.UpdatedAt),
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
		nextReview   string
		lastReviewed sql.NullString
		createdAt    string
		updatedAt    string
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
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	if documentID.Valid {
		id := documentID.UUID
		card.DocumentID = &id
	}

	next, err := parseTime(nextReview)
	if err != nil {
		return nil, err
	}
	var last *time.Time
	if lastReviewed.Valid {
		t, err := parseTime(lastReviewed.String)
		if err != nil {
			return nil, err
		}
		last = &t
	}
	if card.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if card.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	state, err := srs.Restore(ease, interval, reps, next, last)
	if err != nil {
		return nil, fmt.Errorf("flashcard %s: %w", card.ID, err)
	}
	card.State = state

	return &card, nil
}
