package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/events"
	"github.com/studybuddy/studybuddy-api/internal/platform/logger"
	"github.com/studybuddy/studybuddy-api/internal/store"
)

const (
	// HistoryDays is the number of days returned in a summary.
	HistoryDays = 30

	// streakWindowDays bounds how far back a streak is counted.
	streakWindowDays = 366
)

// ActivityService reports a user's study history.
type ActivityService interface {
	// Summary returns today's review count, the current streak and the last
	// HistoryDays days of activity as of now.
	Summary(ctx context.Context, userID uuid.UUID, now time.Time) (domain.ActivitySummary, error)
}

type activityServiceImpl struct {
	activity store.ActivityStore
	logger   *slog.Logger
}

var _ ActivityService = (*activityServiceImpl)(nil)

// NewActivityService creates an ActivityService.
func NewActivityService(activity store.ActivityStore, logger *slog.Logger) (ActivityService, error) {
	if activity == nil {
		return nil, domain.NewValidationError("activity", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &activityServiceImpl{
		activity: activity,
		logger:   logger.With(slog.String("component", "activity_service")),
	}, nil
}

// Summary implements ActivityService.Summary.
func (s *activityServiceImpl) Summary(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) (domain.ActivitySummary, error) {
	today := domain.DayOf(now)
	days, err := s.activity.ListSince(ctx, userID, today.AddDate(0, 0, -(streakWindowDays-1)))
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load study activity",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return domain.ActivitySummary{}, NewFlashcardServiceError("activity_summary", "failed to load activity", err)
	}

	summary := domain.Summarize(days, now)
	historyStart := today.AddDate(0, 0, -(HistoryDays - 1))
	summary.Days = lo.Filter(summary.Days, func(d domain.DailyActivity, _ int) bool {
		return !d.Day.Before(historyStart)
	})
	return summary, nil
}

// ActivityRecorder updates study activity from flashcard.reviewed events.
// It runs on the event workers, outside the review transaction.
type ActivityRecorder struct {
	activity store.ActivityStore
	logger   *slog.Logger
}

var _ events.EventHandler = (*ActivityRecorder)(nil)

// NewActivityRecorder creates an ActivityRecorder.
func NewActivityRecorder(activity store.ActivityStore, logger *slog.Logger) *ActivityRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityRecorder{
		activity: activity,
		logger:   logger.With(slog.String("component", "activity_recorder")),
	}
}

// HandleEvent implements events.EventHandler. Other event types are ignored.
func (r *ActivityRecorder) HandleEvent(ctx context.Context, event *events.Event) error {
	if event == nil || event.Type != events.TypeFlashcardReviewed {
		return nil
	}
	log := logger.FromContextOrDefault(ctx, r.logger)

	var payload events.FlashcardReviewed
	if err := event.UnmarshalPayload(&payload); err != nil {
		log.Error("malformed review event",
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
		return err
	}

	if err := r.activity.RecordReview(ctx, payload.UserID, payload.ReviewedAt, payload.Lapsed); err != nil {
		log.Error("failed to record review activity",
			slog.String("user_id", payload.UserID.String()),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}
