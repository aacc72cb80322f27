package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/studybuddy/studybuddy-api/internal/api/shared"
	"github.com/studybuddy/studybuddy-api/internal/platform/logger"
	"github.com/studybuddy/studybuddy-api/internal/service"
)

// ActivityHandler serves study activity.
type ActivityHandler struct {
	activity service.ActivityService
	now      func() time.Time
	logger   *slog.Logger
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activity service.ActivityService, logger *slog.Logger) *ActivityHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ActivityHandler")
	}
	return &ActivityHandler{
		activity: activity,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.With(slog.String("component", "activity_handler")),
	}
}

// GetActivity handles GET /activity.
func (h *ActivityHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	summary, err := h.activity.Summary(r.Context(), userID, h.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch activity")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, activityToResponse(summary))
}
