package card_review_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/domain/srs"
	"github.com/studybuddy/studybuddy-api/internal/events"
	"github.com/studybuddy/studybuddy-api/internal/platform/sqlite"
	"github.com/studybuddy/studybuddy-api/internal/service/card_review"
	"github.com/studybuddy/studybuddy-api/internal/store"
	"github.com/studybuddy/studybuddy-api/internal/testutils"
)

var reviewTime = time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC)

// staleStore serves a snapshot taken before a competing review committed for
// the first stale reads, as if that review landed between our read and write.
type staleStore struct {
	store.FlashcardStore
	snapshot *domain.Flashcard
	stale    *int
	reads    *int
}

func (s staleStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return staleStore{FlashcardStore: s.FlashcardStore.WithTx(tx), snapshot: s.snapshot, stale: s.stale, reads: s.reads}
}

func (s staleStore) GetForUpdate(ctx context.Context, userID, id uuid.UUID) (*domain.Flashcard, error) {
	*s.reads++
	if *s.stale > 0 {
		*s.stale--
		return s.snapshot, nil
	}
	return s.FlashcardStore.GetForUpdate(ctx, userID, id)
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.Event
	err    error
}

func (e *recordingEmitter) EmitEvent(_ context.Context, event *events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.err
}

type fixture struct {
	db      *sql.DB
	cards   *sqlite.FlashcardStore
	emitter *recordingEmitter
	userID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutils.NewSQLiteDB(t)
	return &fixture{
		db:      db,
		cards:   sqlite.NewFlashcardStore(db, nil),
		emitter: &recordingEmitter{},
		userID:  uuid.New(),
	}
}

func (f *fixture) service(t *testing.T, cards store.FlashcardStore) card_review.CardReviewService {
	t.Helper()
	if cards == nil {
		cards = f.cards
	}
	svc, err := card_review.NewCardReviewService(
		f.db, cards, srs.NewDefaultScheduler(), nil,
		card_review.WithClock(func() time.Time { return reviewTime }),
		card_review.WithEmitter(f.emitter),
	)
	require.NoError(t, err)
	return svc
}

func (f *fixture) insertCard(t *testing.T) *domain.Flashcard {
	t.Helper()
	return testutils.MustInsertCard(t, f.db, f.userID, testutils.WithCreatedAt(reviewTime.Add(-time.Hour)))
}

func TestSubmitReview_FirstSuccess(t *testing.T) {
	f := newFixture(t)
	card := f.insertCard(t)

	reviewed, err := f.service(t, nil).SubmitReview(context.Background(), f.userID, card.ID, srs.QualityHesitation)
	require.NoError(t, err)

	assert.Equal(t, 1, reviewed.State.Repetitions())
	assert.Equal(t, 1, reviewed.State.IntervalDays())
	assert.InDelta(t, 2.5, reviewed.State.EaseFactor(), 1e-9)
	assert.True(t, reviewed.State.NextReviewAt().Equal(reviewTime.AddDate(0, 0, 1)))
	last, ok := reviewed.State.LastReviewedAt()
	require.True(t, ok)
	assert.True(t, last.Equal(reviewTime))
	assert.Equal(t, 2, reviewed.Version)

	stored, err := f.cards.GetByID(context.Background(), f.userID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, 1, stored.State.Repetitions())
	assert.True(t, stored.State.NextReviewAt().Equal(reviewed.State.NextReviewAt()))
}

func TestSubmitReview_Progression(t *testing.T) {
	f := newFixture(t)
	card := f.insertCard(t)
	svc := f.service(t, nil)
	ctx := context.Background()

	steps := []struct {
		quality     srs.Quality
		repetitions int
		interval    int
		ease        float64
	}{
		{srs.QualityPerfect, 1, 1, 2.6},
		{srs.QualityPerfect, 2, 6, 2.7},
		{srs.QualityHesitation, 3, 16, 2.7},
		{srs.QualityHardWrong, 0, 1, 2.38},
	}

	for i, step := range steps {
		reviewed, err := svc.SubmitReview(ctx, f.userID, card.ID, step.quality)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.repetitions, reviewed.State.Repetitions(), "step %d", i)
		assert.Equal(t, step.interval, reviewed.State.IntervalDays(), "step %d", i)
		assert.InDelta(t, step.ease, reviewed.State.EaseFactor(), 1e-9, "step %d", i)
		assert.Equal(t, i+2, reviewed.Version, "step %d", i)
	}
}

func TestSubmitReview_InvalidQuality(t *testing.T) {
	f := newFixture(t)
	card := f.insertCard(t)
	svc := f.service(t, nil)

	for _, q := range []srs.Quality{-1, 6, 42} {
		_, err := svc.SubmitReview(context.Background(), f.userID, card.ID, q)
		assert.ErrorIs(t, err, card_review.ErrInvalidQuality)
	}

	stored, err := f.cards.GetByID(context.Background(), f.userID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version, "rejected grades must not write")
	assert.Empty(t, f.emitter.events)
}

func TestSubmitReview_NotFound(t *testing.T) {
	f := newFixture(t)
	card := f.insertCard(t)
	svc := f.service(t, nil)

	_, err := svc.SubmitReview(context.Background(), f.userID, uuid.New(), srs.QualityPerfect)
	assert.ErrorIs(t, err, card_review.ErrCardNotFound)

	// another user's card is indistinguishable from a missing one
	_, err = svc.SubmitReview(context.Background(), uuid.New(), card.ID, srs.QualityPerfect)
	assert.ErrorIs(t, err, card_review.ErrCardNotFound)
	assert.Empty(t, f.emitter.events)
}

// competingReview commits a review of card outside any transaction of the
// service under test and returns the stale pre-review snapshot.
func (f *fixture) competingReview(t *testing.T, card *domain.Flashcard, quality srs.Quality) *domain.Flashcard {
	t.Helper()
	snapshot, err := f.cards.GetByID(context.Background(), f.userID, card.ID)
	require.NoError(t, err)

	competitor, err := f.service(t, nil).SubmitReview(context.Background(), f.userID, card.ID, quality)
	require.NoError(t, err)
	require.Equal(t, 2, competitor.Version)
	f.emitter.events = nil
	return snapshot
}

func TestSubmitReview_RetriesOnceOnConflict(t *testing.T) {
	f := newFixture(t)
	card := f.insertCard(t)
	snapshot := f.competingReview(t, card, srs.QualityPerfect)
	stale, reads := 1, 0

	reviewed, err := f.service(t, staleStore{FlashcardStore: f.cards, snapshot: snapshot, stale: &stale, reads: &reads}).
		SubmitReview(context.Background(), f.userID, card.ID, srs.QualityPerfect)
	require.NoError(t, err)
	assert.Equal(t, 2, reads)

	// 1 -> 2 by the competing review, 2 -> 3 by the retry
	assert.Equal(t, 3, reviewed.Version)
	// scheduled from the competitor's state, not the stale snapshot
	assert.Equal(t, 2, reviewed.State.Repetitions())
	assert.Equal(t, 6, reviewed.State.IntervalDays())
	assert.InDelta(t, 2.7, reviewed.State.EaseFactor(), 1e-9)
	assert.Len(t, f.emitter.events, 1)

	stored, err := f.cards.GetByID(context.Background(), f.userID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Version)
	assert.Equal(t, 2, stored.State.Repetitions())
}

func TestSubmitReview_GivesUpAfterSecondConflict(t *testing.T) {
	f := newFixture(t)
	card := f.insertCard(t)
	snapshot := f.competingReview(t, card, srs.QualityHard)
	stale, reads := 5, 0

	_, err := f.service(t, staleStore{FlashcardStore: f.cards, snapshot: snapshot, stale: &stale, reads: &reads}).
		SubmitReview(context.Background(), f.userID, card.ID, srs.QualityPerfect)

	require.Error(t, err)
	assert.ErrorIs(t, err, card_review.ErrConcurrencyConflict)
	var svcErr *card_review.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "submit_review", svcErr.Operation)
	assert.Equal(t, 2, reads, "exactly two attempts")
	assert.Empty(t, f.emitter.events)

	// the competing review stands
	stored, err := f.cards.GetByID(context.Background(), f.userID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, 1, stored.State.Repetitions())
}

func TestSubmitReview_ConcurrentDifferentCards(t *testing.T) {
	db := testutils.NewSQLiteFileDB(t)
	f := &fixture{
		db:      db,
		cards:   sqlite.NewFlashcardStore(db, nil),
		emitter: &recordingEmitter{},
		userID:  uuid.New(),
	}
	svc := f.service(t, nil)

	const n = 16
	cards := make([]*domain.Flashcard, n)
	for i := range cards {
		cards[i] = f.insertCard(t)
	}

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range cards {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.SubmitReview(context.Background(), f.userID, cards[i].ID, srs.QualityPerfect)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "card %d", i)
	}
	for _, card := range cards {
		stored, err := f.cards.GetByID(context.Background(), f.userID, card.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.Version)
		assert.Equal(t, 1, stored.State.Repetitions())
	}
	assert.Len(t, f.emitter.events, n)
}

func TestSubmitReview_EmitsReviewedEvent(t *testing.T) {
	f := newFixture(t)
	card := f.insertCard(t)

	_, err := f.service(t, nil).SubmitReview(context.Background(), f.userID, card.ID, srs.QualityIncorrect)
	require.NoError(t, err)

	require.Len(t, f.emitter.events, 1)
	event := f.emitter.events[0]
	assert.Equal(t, events.TypeFlashcardReviewed, event.Type)

	var payload events.FlashcardReviewed
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, f.userID, payload.UserID)
	assert.Equal(t, card.ID, payload.FlashcardID)
	assert.Equal(t, 1, payload.Quality)
	assert.True(t, payload.Lapsed)
	assert.Equal(t, 1, payload.IntervalDays)
	assert.True(t, payload.ReviewedAt.Equal(reviewTime))
}

func TestSubmitReview_EmitFailureDoesNotFailReview(t *testing.T) {
	f := newFixture(t)
	f.emitter.err = errors.New("queue full")
	card := f.insertCard(t)

	reviewed, err := f.service(t, nil).SubmitReview(context.Background(), f.userID, card.ID, srs.QualityHard)
	require.NoError(t, err)
	assert.Equal(t, 2, reviewed.Version)
}

func TestNewCardReviewService_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := card_review.NewCardReviewService(nil, f.cards, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = card_review.NewCardReviewService(f.db, nil, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	svc, err := card_review.NewCardReviewService(f.db, f.cards, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}
