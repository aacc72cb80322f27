package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studybuddy/studybuddy-api/internal/api/shared"
	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/mocks"
)

func TestGetActivity(t *testing.T) {
	userID := uuid.New()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	svc := &mocks.MockActivityService{
		SummaryFn: func(_ context.Context, gotUser uuid.UUID, now time.Time) (domain.ActivitySummary, error) {
			assert.Equal(t, userID, gotUser)
			assert.True(t, now.Equal(fixedNow))
			return domain.ActivitySummary{
				TodayReviews: 4,
				StreakDays:   2,
				Days: []domain.DailyActivity{
					{Day: day.AddDate(0, 0, -1), Reviews: 3, Lapses: 1},
					{Day: day, Reviews: 4},
				},
			}, nil
		},
	}
	h := NewActivityHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.now = func() time.Time { return fixedNow }

	req := httptest.NewRequest(http.MethodGet, "/activity", nil)
	req = req.WithContext(shared.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	h.GetActivity(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"today_reviews": 4,
		"streak_days": 2,
		"days": [
			{"day": "2025-03-09", "reviews": 3, "lapses": 1},
			{"day": "2025-03-10", "reviews": 4, "lapses": 0}
		]
	}`, rec.Body.String())
}

func TestGetActivity_Errors(t *testing.T) {
	h := NewActivityHandler(&mocks.MockActivityService{Err: assert.AnError}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := httptest.NewRecorder()
	h.GetActivity(rec, httptest.NewRequest(http.MethodGet, "/activity", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/activity", nil)
	req = req.WithContext(shared.WithUserID(req.Context(), uuid.New()))
	rec = httptest.NewRecorder()
	h.GetActivity(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
