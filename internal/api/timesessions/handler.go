// Package timesessions exposes worker time tracking: start/stop sessions
// and per-work-item allocations.
package timesessions

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calm-red-fox/siteops/internal/api/middleware"
	"github.com/calm-red-fox/siteops/internal/api/respond"
	"github.com/calm-red-fox/siteops/internal/metrics"
	"github.com/calm-red-fox/siteops/internal/models"
	"github.com/calm-red-fox/siteops/internal/storage"
)

type Handler struct {
	storage storage.Storage
	log     *zap.SugaredLogger
}

func NewHandler(store storage.Storage, log *zap.SugaredLogger) *Handler {
	return &Handler{storage: store, log: log}
}

type StartRequest struct {
	ProjectID string `json:"project_id"`
	Note      string `json:"note"`
}

type AllocationRequest struct {
	WorkItemID       string   `json:"work_item_id"`
	MinutesAllocated *int     `json:"minutes_allocated"`
	PercentAllocated *float64 `json:"percent_allocated"`
	Note             string   `json:"note"`
}

// SessionResponse is a session with its live duration.
type SessionResponse struct {
	*models.TimeSession
	DurationMinutes int  `json:"duration_minutes"`
	Active          bool `json:"active"`
}

func sessionToResponse(s *models.TimeSession) *SessionResponse {
	return &SessionResponse{
		TimeSession:     s,
		DurationMinutes: s.DurationMinutes(),
		Active:          s.IsActive(),
	}
}

// List returns the caller's sessions, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessions, err := h.storage.TimeSessions().ListByUser(r.Context(), userID)
	if err != nil {
		h.log.Errorw("list time sessions", "error", err)
		respond.Internal(w)
		return
	}

	resp := make([]*SessionResponse, len(sessions))
	for i, s := range sessions {
		resp[i] = sessionToResponse(s)
	}
	respond.OK(w, resp)
}

// Start opens a session for the caller. A second active session is
// rejected and the existing one stays untouched.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	if req.ProjectID == "" {
		respond.Validation(w, "project_id is required")
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	project, err := h.storage.Projects().GetByID(ctx, req.ProjectID)
	if err != nil {
		h.log.Errorw("start session: get project", "error", err)
		respond.Internal(w)
		return
	}
	if project == nil {
		respond.NotFound(w, "project not found")
		return
	}

	session := models.NewTimeSession(req.ProjectID, userID, req.Note)
	session.ID = uuid.New().String()

	if err := h.storage.TimeSessions().Start(ctx, session); err != nil {
		if respond.DomainError(w, err) {
			return
		}
		h.log.Errorw("start session", "error", err)
		respond.Internal(w)
		return
	}

	metrics.TimeSessionsStarted.Inc()
	h.log.Infow("time session started", "id", session.ID, "user", userID, "project", req.ProjectID)
	respond.Created(w, sessionToResponse(session))
}

// Active returns the caller's open session, or null.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	session, err := h.storage.TimeSessions().GetActiveForUser(r.Context(), userID)
	if err != nil {
		h.log.Errorw("get active session", "error", err)
		respond.Internal(w)
		return
	}
	if session == nil {
		respond.OK(w, nil)
		return
	}
	respond.OK(w, sessionToResponse(session))
}

// GetByID returns one session. Workers see only their own.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadOwnSession(w, r)
	if !ok {
		return
	}
	respond.OK(w, sessionToResponse(session))
}

// Stop closes the caller's session. Stopping a closed session is an
// informational no-op and the stored end time stays as it was.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadOwnSession(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	err := h.storage.TimeSessions().Stop(ctx, session.ID, time.Now())
	if errors.Is(err, models.ErrAlreadyClosed) {
		respond.OK(w, map[string]any{
			"session": sessionToResponse(session),
			"note":    "session was already closed",
		})
		return
	}
	if err != nil {
		if respond.DomainError(w, err) {
			return
		}
		h.log.Errorw("stop session", "error", err)
		respond.Internal(w)
		return
	}

	closed, err := h.storage.TimeSessions().GetByID(ctx, session.ID)
	if err != nil || closed == nil {
		h.log.Errorw("stop session: reload", "error", err)
		respond.Internal(w)
		return
	}

	metrics.TimeSessionsClosed.Inc()
	h.log.Infow("time session stopped", "id", session.ID, "minutes", closed.DurationMinutes())
	respond.OK(w, map[string]any{"session": sessionToResponse(closed)})
}

// AddAllocation attributes part of the caller's session to a work item.
func (h *Handler) AddAllocation(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadOwnSession(w, r)
	if !ok {
		return
	}

	var req AllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	if req.WorkItemID == "" {
		respond.Validation(w, "work_item_id is required")
		return
	}

	alloc := &models.TimeSessionAllocation{
		ID:               uuid.New().String(),
		TimeSessionID:    session.ID,
		WorkItemID:       req.WorkItemID,
		MinutesAllocated: req.MinutesAllocated,
		PercentAllocated: req.PercentAllocated,
		Note:             req.Note,
	}

	if err := h.storage.TimeSessions().AddAllocation(r.Context(), alloc); err != nil {
		if respond.DomainError(w, err) {
			return
		}
		h.log.Errorw("add allocation", "error", err)
		respond.Internal(w)
		return
	}

	respond.Created(w, alloc)
}

// DeleteAllocation removes an allocation. Only the owner of the session it
// belongs to may delete it, staff included.
func (h *Handler) DeleteAllocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.BadRequest(w, "allocation id required")
		return
	}

	ctx := r.Context()
	alloc, err := h.storage.TimeSessions().GetAllocation(ctx, id)
	if err != nil {
		h.log.Errorw("delete allocation: get", "error", err)
		respond.Internal(w)
		return
	}
	if alloc == nil {
		respond.NotFound(w, "allocation not found")
		return
	}

	session, err := h.storage.TimeSessions().GetByID(ctx, alloc.TimeSessionID)
	if err != nil {
		h.log.Errorw("delete allocation: get session", "error", err)
		respond.Internal(w)
		return
	}
	if session == nil || session.UserID != middleware.GetUserID(ctx) {
		respond.Forbidden(w)
		return
	}

	if err := h.storage.TimeSessions().DeleteAllocation(ctx, id); err != nil {
		h.log.Errorw("delete allocation", "error", err)
		respond.Internal(w)
		return
	}

	respond.NoContent(w)
}

// loadOwnSession resolves {id} to a session visible to the caller: the
// owner always, staff for any session on reads and stops.
func (h *Handler) loadOwnSession(w http.ResponseWriter, r *http.Request) (*models.TimeSession, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.BadRequest(w, "session id required")
		return nil, false
	}

	ctx := r.Context()
	session, err := h.storage.TimeSessions().GetByID(ctx, id)
	if err != nil {
		h.log.Errorw("get time session", "error", err)
		respond.Internal(w)
		return nil, false
	}
	if session == nil {
		respond.NotFound(w, "session not found")
		return nil, false
	}

	userID := middleware.GetUserID(ctx)
	role := middleware.GetRole(ctx)
	if session.UserID != userID && !(role == models.RoleAdmin || role == models.RoleStaff) {
		respond.Forbidden(w)
		return nil, false
	}

	return session, true
}
