package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/studybuddy/studybuddy-api/internal/domain"
)

// ActivityStore keeps per-day review counters for streak tracking.
// It is written asynchronously and never participates in scheduling.
type ActivityStore interface {
	// RecordReview increments the review counter of userID for day, and the
	// lapse counter as well when lapsed is true. day is truncated to UTC midnight.
	RecordReview(ctx context.Context, userID uuid.UUID, day time.Time, lapsed bool) error

	// ListSince returns the user's daily rows from since (inclusive), oldest first.
	ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.DailyActivity, error)

	// WithTx returns an ActivityStore that runs its queries in tx.
	WithTx(tx *sql.Tx) ActivityStore
}
