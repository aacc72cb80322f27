package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/domain/srs"
	"github.com/studybuddy/studybuddy-api/internal/store"
)

var (
	testNow   = time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC)
	cardCols  = []string{"id", "user_id", "document_id", "front", "back", "ease_factor", "interval_days", "repetitions", "next_review_at", "last_reviewed_at", "version", "created_at", "updated_at"}
	errBoom   = errors.New("connection refused")
	testUser  = uuid.MustParse("7d4c9c0e-4b0c-4a6f-9d77-1f0ea5a3b001")
	testDocID = uuid.MustParse("7d4c9c0e-4b0c-4a6f-9d77-1f0ea5a3b002")
)

func newMockStore(t *testing.T) (*PostgresFlashcardStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresFlashcardStore(db, nil), mock
}

func newCard(t *testing.T) *domain.Flashcard {
	t.Helper()
	card, err := domain.NewFlashcard(testUser, &testDocID, domain.CardDraft{Front: "Q", Back: "A"}, testNow)
	require.NoError(t, err)
	return card
}

func cardRow(rows *sqlmock.Rows, card *domain.Flashcard) *sqlmock.Rows {
	var last any
	if t, ok := card.State.LastReviewedAt(); ok {
		last = t
	}
	var doc any
	if card.DocumentID != nil {
		doc = card.DocumentID.String()
	}
	return rows.AddRow(
		card.ID.String(), card.UserID.String(), doc, card.Front, card.Back,
		card.State.EaseFactor(), card.State.IntervalDays(), card.State.Repetitions(),
		card.State.NextReviewAt(), last, card.Version, card.CreatedAt, card.UpdatedAt,
	)
}

func TestCreateMultiple_SingleStatement(t *testing.T) {
	s, mock := newMockStore(t)
	a, b := newCard(t), newCard(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO flashcards")).
		WithArgs(
			a.ID, a.UserID, sqlmock.AnyArg(), "Q", "A", 2.5, 1, 0, sqlmock.AnyArg(), sqlmock.AnyArg(), 1, sqlmock.AnyArg(), sqlmock.AnyArg(),
			b.ID, b.UserID, sqlmock.AnyArg(), "Q", "A", 2.5, 1, 0, sqlmock.AnyArg(), sqlmock.AnyArg(), 1, sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, s.CreateMultiple(context.Background(), []*domain.Flashcard{a, b}))
}

func TestCreateMultiple_EmptyAndInvalid(t *testing.T) {
	s, _ := newMockStore(t)
	ctx := context.Background()

	assert.NoError(t, s.CreateMultiple(ctx, nil))

	bad := newCard(t)
	bad.Back = ""
	err := s.CreateMultiple(ctx, []*domain.Flashcard{newCard(t), bad})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateMultiple_MapsDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO flashcards").
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	err := s.CreateMultiple(context.Background(), []*domain.Flashcard{newCard(t)})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestGetByID(t *testing.T) {
	s, mock := newMockStore(t)
	card := newCard(t)

	mock.ExpectQuery(`SELECT .* FROM flashcards WHERE id = \$1 AND user_id = \$2$`).
		WithArgs(card.ID, testUser).
		WillReturnRows(cardRow(sqlmock.NewRows(cardCols), card))

	got, err := s.GetByID(context.Background(), testUser, card.ID)
	require.NoError(t, err)
	assert.Equal(t, card.ID, got.ID)
	require.NotNil(t, got.DocumentID)
	assert.Equal(t, testDocID, *got.DocumentID)
	assert.True(t, got.State.IsNew())
	assert.Equal(t, 1, got.Version)
}

func TestGetByID_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT .* FROM flashcards").
		WithArgs(id, testUser).
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetByID(context.Background(), testUser, id)
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}

func TestGetByID_CorruptState(t *testing.T) {
	s, mock := newMockStore(t)
	card := newCard(t)

	rows := sqlmock.NewRows(cardCols).AddRow(
		card.ID.String(), testUser.String(), nil, "Q", "A",
		1.1, 1, 0, testNow, nil, 1, testNow, testNow,
	)
	mock.ExpectQuery("SELECT .* FROM flashcards").WillReturnRows(rows)

	_, err := s.GetByID(context.Background(), testUser, card.ID)
	assert.ErrorIs(t, err, srs.ErrInvalidState)
}

func TestGetForUpdate_LocksRow(t *testing.T) {
	s, mock := newMockStore(t)
	card := newCard(t)

	mock.ExpectQuery(`SELECT .* FROM flashcards WHERE id = \$1 AND user_id = \$2 FOR UPDATE`).
		WithArgs(card.ID, testUser).
		WillReturnRows(cardRow(sqlmock.NewRows(cardCols), card))

	_, err := s.GetForUpdate(context.Background(), testUser, card.ID)
	require.NoError(t, err)
}

func TestUpdateState(t *testing.T) {
	card := newCard(t)
	state, err := srs.Review(card.State, srs.QualityHesitation, testNow)
	require.NoError(t, err)
	updated := card.WithState(state, testNow)

	t.Run("success", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE flashcards SET .* WHERE id = \$8 AND user_id = \$9 AND version = \$10`).
			WithArgs(state.EaseFactor(), 1, 1, sqlmock.AnyArg(), sqlmock.AnyArg(), 2, sqlmock.AnyArg(), card.ID, testUser, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, s.UpdateState(context.Background(), updated, 1))
	})

	t.Run("version moved on", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec("UPDATE flashcards").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT version FROM flashcards").
			WithArgs(card.ID, testUser).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))

		err := s.UpdateState(context.Background(), updated, 1)
		assert.ErrorIs(t, err, store.ErrConcurrencyConflict)
	})

	t.Run("card deleted", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec("UPDATE flashcards").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT version FROM flashcards").WillReturnError(sql.ErrNoRows)

		err := s.UpdateState(context.Background(), updated, 1)
		assert.ErrorIs(t, err, store.ErrCardNotFound)
	})

	t.Run("version does not advance", func(t *testing.T) {
		s, _ := newMockStore(t)
		err := s.UpdateState(context.Background(), card, 1)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("serialization failure", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec("UPDATE flashcards").
			WillReturnError(&pgconn.PgError{Code: serializationFailure})

		err := s.UpdateState(context.Background(), updated, 1)
		assert.ErrorIs(t, err, store.ErrConcurrencyConflict)
	})
}

func TestQueryDue(t *testing.T) {
	card := newCard(t)

	t.Run("unbounded", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`WHERE user_id = \$1 AND next_review_at <= \$2 ORDER BY next_review_at ASC, created_at ASC, seq ASC$`).
			WithArgs(testUser, testNow).
			WillReturnRows(cardRow(sqlmock.NewRows(cardCols), card))

		cards, err := s.QueryDue(context.Background(), testUser, testNow, nil, 0)
		require.NoError(t, err)
		assert.Len(t, cards, 1)
	})

	t.Run("document and limit", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`AND document_id = \$3 ORDER BY .* LIMIT \$4$`).
			WithArgs(testUser, testNow, testDocID, 5).
			WillReturnRows(sqlmock.NewRows(cardCols))

		cards, err := s.QueryDue(context.Background(), testUser, testNow, &testDocID, 5)
		require.NoError(t, err)
		assert.NotNil(t, cards)
		assert.Empty(t, cards)
	})

	t.Run("query error", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery("SELECT").WillReturnError(errBoom)

		_, err := s.QueryDue(context.Background(), testUser, testNow, nil, 0)
		assert.ErrorIs(t, err, errBoom)
	})
}

func TestListByUser(t *testing.T) {
	s, mock := newMockStore(t)
	a, b := newCard(t), newCard(t)

	mock.ExpectQuery(`WHERE user_id = \$1 AND document_id = \$2 ORDER BY created_at DESC, seq DESC`).
		WithArgs(testUser, testDocID).
		WillReturnRows(cardRow(cardRow(sqlmock.NewRows(cardCols), a), b))

	cards, err := s.ListByUser(context.Background(), testUser, &testDocID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, a.ID, cards[0].ID)
}

func TestDelete(t *testing.T) {
	id := uuid.New()

	t.Run("deleted", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec("DELETE FROM flashcards WHERE id").
			WithArgs(id, testUser).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, s.Delete(context.Background(), testUser, id))
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec("DELETE FROM flashcards WHERE id").
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, s.Delete(context.Background(), testUser, id), store.ErrCardNotFound)
	})
}

func TestDeleteByDocument(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM flashcards WHERE user_id = \\$1 AND document_id = \\$2").
		WithArgs(testUser, testDocID).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.DeleteByDocument(context.Background(), testUser, testDocID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestWithTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s := NewPostgresFlashcardStore(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM flashcards").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = store.RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		return s.WithTx(tx).Delete(ctx, testUser, uuid.New())
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresFlashcardStore_NilDB(t *testing.T) {
	assert.Panics(t, func() { NewPostgresFlashcardStore(nil, nil) })
}
