// Package dashboard serves the landing page KPIs.
package dashboard

import (
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/calm-red-fox/siteops/internal/api/middleware"
	"github.com/calm-red-fox/siteops/internal/api/respond"
	"github.com/calm-red-fox/siteops/internal/models"
	"github.com/calm-red-fox/siteops/internal/storage"
)

const recentProjectLimit = 5

type Handler struct {
	storage storage.Storage
	log     *zap.SugaredLogger
}

func NewHandler(store storage.Storage, log *zap.SugaredLogger) *Handler {
	return &Handler{storage: store, log: log}
}

// Response is the dashboard payload: organization-wide project figures
// plus the caller's own tracked time over the last week.
type Response struct {
	ProjectCount       int64             `json:"project_count"`
	RecentProjects     []*models.Project `json:"recent_projects"`
	WeekCompletedHours float64           `json:"week_completed_hours"`
	WeekSessionCount   int               `json:"week_session_count"`
	ActiveSession      bool              `json:"active_session"`
}

// Get returns the KPIs for the authenticated user.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	count, err := h.storage.Projects().Count(ctx)
	if err != nil {
		h.log.Errorw("dashboard: project count", "error", err)
		respond.Internal(w)
		return
	}

	recent, err := h.storage.Projects().ListRecent(ctx, recentProjectLimit)
	if err != nil {
		h.log.Errorw("dashboard: recent projects", "error", err)
		respond.Internal(w)
		return
	}

	since := time.Now().AddDate(0, 0, -7)
	completed, err := h.storage.TimeSessions().ListCompletedSince(ctx, userID, since)
	if err != nil {
		h.log.Errorw("dashboard: completed sessions", "error", err)
		respond.Internal(w)
		return
	}

	var minutes int
	for _, s := range completed {
		minutes += s.DurationMinutes()
	}

	active, err := h.storage.TimeSessions().GetActiveForUser(ctx, userID)
	if err != nil {
		h.log.Errorw("dashboard: active session", "error", err)
		respond.Internal(w)
		return
	}

	// Hours to one decimal place
	hours := math.Round(float64(minutes)/60*10) / 10

	respond.OK(w, &Response{
		ProjectCount:       count,
		RecentProjects:     recent,
		WeekCompletedHours: hours,
		WeekSessionCount:   len(completed),
		ActiveSession:      active != nil,
	})
}
