// Package photos exposes the site photo journal attached to projects.
package photos

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calm-red-fox/siteops/internal/api/middleware"
	"github.com/calm-red-fox/siteops/internal/api/respond"
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

type CreateRequest struct {
	TimeSessionID *string `json:"time_session_id"`
	WorkItemID    *string `json:"work_item_id"`
	URL           string  `json:"url"`
	Description   string  `json:"description"`
}

// ListByProject returns a project's photos, newest first.
func (h *Handler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		respond.BadRequest(w, "project id required")
		return
	}

	list, err := h.storage.Photos().ListByProject(r.Context(), projectID)
	if err != nil {
		h.log.Errorw("list work photos", "error", err)
		respond.Internal(w)
		return
	}
	respond.OK(w, list)
}

// Create registers a photo against the project in the URL.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		respond.BadRequest(w, "project id required")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	if req.URL == "" {
		respond.Validation(w, "url is required")
		return
	}

	ctx := r.Context()
	project, err := h.storage.Projects().GetByID(ctx, projectID)
	if err != nil {
		h.log.Errorw("create photo: get project", "error", err)
		respond.Internal(w)
		return
	}
	if project == nil {
		respond.NotFound(w, "project not found")
		return
	}

	photo := &models.WorkPhoto{
		ID:            uuid.New().String(),
		ProjectID:     projectID,
		UserID:        middleware.GetUserID(ctx),
		TimeSessionID: req.TimeSessionID,
		WorkItemID:    req.WorkItemID,
		URL:           req.URL,
		Description:   req.Description,
		CreatedAt:     time.Now(),
	}

	if err := h.storage.Photos().Create(ctx, photo); err != nil {
		h.log.Errorw("create work photo", "error", err)
		respond.Internal(w)
		return
	}

	h.log.Infow("work photo created", "id", photo.ID, "project", projectID)
	respond.Created(w, photo)
}
