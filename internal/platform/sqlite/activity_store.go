package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/platform/logger"
	"github.com/studybuddy/studybuddy-api/internal/store"
)

// ActivityStore implements store.ActivityStore on SQLite.
type ActivityStore struct {
	db     store.DBTX
	logger *slog.Logger
	now    func() time.Time
}

// NewActivityStore creates a SQLite ActivityStore.
func NewActivityStore(db store.DBTX, logger *slog.Logger) *ActivityStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityStore{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite_activity_store")),
		now:    time.Now,
	}
}

var _ store.ActivityStore = (*ActivityStore)(nil)

// WithTx implements store.ActivityStore.WithTx.
func (s *ActivityStore) WithTx(tx *sql.Tx) store.ActivityStore {
	return &ActivityStore{db: tx, logger: s.logger, now: s.now}
}

// RecordReview implements store.ActivityStore.RecordReview.
func (s *ActivityStore) RecordReview(ctx context.Context, userID uuid.UUID, day time.Time, lapsed bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	lapses := 0
	if lapsed {
		lapses = 1
	}

	query := `
		INSERT INTO study_activity (user_id, day, reviews, lapses, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT (user_id, day) DO UPDATE SET
			reviews = reviews + 1,
			lapses = lapses + excluded.lapses,
			updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		userID, formatDay(domain.DayOf(day)), lapses, formatTime(s.now()))
	if err != nil {
		log.Error("failed to record review activity",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return nil
}

// ListSince implements store.ActivityStore.ListSince.
func (s *ActivityStore) ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.DailyActivity, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, day, reviews, lapses
		FROM study_activity
		WHERE user_id = ? AND day >= ?
		ORDER BY day ASC`,
		userID, formatDay(domain.DayOf(since)))
	if err != nil {
		log.Error("failed to list activity",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	days := []domain.DailyActivity{}
	for rows.Next() {
		var (
			a   domain.DailyActivity
			day string
		)
		if err := rows.Scan(&a.UserID, &day, &a.Reviews, &a.Lapses); err != nil {
			return nil, err
		}
		if a.Day, err = parseDay(day); err != nil {
			return nil, err
		}
		days = append(days, a)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return days, nil
}
