package postgres

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

// PostgresActivityStore implements store.ActivityStore on PostgreSQL.
type PostgresActivityStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresActivityStore creates a new PostgreSQL ActivityStore.
func NewPostgresActivityStore(db store.DBTX, logger *slog.Logger) *PostgresActivityStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresActivityStore{
		db:     db,
		logger: logger.With(slog.String("component", "activity_store")),
	}
}

var _ store.ActivityStore = (*PostgresActivityStore)(nil)

// WithTx implements store.ActivityStore.WithTx
func (s *PostgresActivityStore) WithTx(tx *sql.Tx) store.ActivityStore {
	return &PostgresActivityStore{db: tx, logger: s.logger}
}

// RecordReview implements store.ActivityStore.RecordReview
func (s *PostgresActivityStore) RecordReview(ctx context.Context, userID uuid.UUID, day time.Time, lapsed bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	lapses := 0
	if lapsed {
		lapses = 1
	}

	query := `
		INSERT INTO study_activity (user_id, day, reviews, lapses, updated_at)
		VALUES ($1, $2::date, 1, $3, NOW())
		ON CONFLICT (user_id, day) DO UPDATE SET
			reviews = study_activity.reviews + 1,
			lapses = study_activity.lapses + EXCLUDED.lapses,
			updated_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query, userID, domain.DayOf(day).Format(time.DateOnly), lapses)
	if err != nil {
		log.Error("failed to record review activity",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}
	return nil
}

// ListSince implements store.ActivityStore.ListSince
func (s *PostgresActivityStore) ListSince(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]domain.DailyActivity, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, day, reviews, lapses
		FROM study_activity
		WHERE user_id = $1 AND day >= $2::date
		ORDER BY day ASC
	`, userID, domain.DayOf(since).Format(time.DateOnly))
	if err != nil {
		log.Error("failed to list activity",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	days := []domain.DailyActivity{}
	for rows.Next() {
		var a domain.DailyActivity
		if err := rows.Scan(&a.UserID, &a.Day, &a.Reviews, &a.Lapses); err != nil {
			return nil, err
		}
		a.Day = domain.DayOf(a.Day)
		days = append(days, a)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return days, nil
}
