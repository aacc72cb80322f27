package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/service"
)

// MockActivityService implements service.ActivityService for testing
type MockActivityService struct {
	SummaryFn func(ctx context.Context, userID uuid.UUID, now time.Time) (domain.ActivitySummary, error)

	// Default response values
	Result domain.ActivitySummary
	Err    error
}

var _ service.ActivityService = (*MockActivityService)(nil)

// Summary implements service.ActivityService.
func (m *MockActivityService) Summary(ctx context.Context, userID uuid.UUID, now time.Time) (domain.ActivitySummary, error) {
	if m.SummaryFn != nil {
		return m.SummaryFn(ctx, userID, now)
	}
	return m.Result, m.Err
}
