// Package workitems exposes the per-project work breakdown endpoints,
// including the assembled tree.
package workitems

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

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
	Name      string  `json:"name"`
	ParentID  *string `json:"parent_id"`
	Weight    float64 `json:"weight"`
	SortOrder int     `json:"sort_order"`
}

type UpdateRequest struct {
	Name      *string  `json:"name"`
	ParentID  *string  `json:"parent_id"`
	Weight    *float64 `json:"weight"`
	SortOrder *int     `json:"sort_order"`
}

// ListByProject returns the project's work items flat, ordered by
// (sort_order, id).
func (h *Handler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		respond.BadRequest(w, "project id required")
		return
	}

	items, err := h.storage.WorkItems().ListByProject(r.Context(), projectID)
	if err != nil {
		h.log.Errorw("list work items", "error", err)
		respond.Internal(w)
		return
	}
	if items == nil {
		items = []*models.WorkItem{}
	}
	respond.OK(w, items)
}

// Tree returns the project's work items assembled into a forest.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		respond.BadRequest(w, "project id required")
		return
	}

	items, err := h.storage.WorkItems().ListByProject(r.Context(), projectID)
	if err != nil {
		h.log.Errorw("work item tree", "error", err)
		respond.Internal(w)
		return
	}

	respond.OK(w, models.BuildWorkItemTree(items))
}

// Create adds a work item to a project.
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

	if strings.TrimSpace(req.Name) == "" {
		respond.Validation(w, "name is required")
		return
	}

	ctx := r.Context()
	project, err := h.storage.Projects().GetByID(ctx, projectID)
	if err != nil {
		h.log.Errorw("create work item: get project", "error", err)
		respond.Internal(w)
		return
	}
	if project == nil {
		respond.NotFound(w, "project not found")
		return
	}

	item := models.NewWorkItem(projectID, strings.TrimSpace(req.Name))
	item.ID = uuid.New().String()
	item.ParentID = req.ParentID
	if req.Weight > 0 {
		item.Weight = req.Weight
	}
	item.SortOrder = req.SortOrder

	if err := h.storage.WorkItems().Create(ctx, item); err != nil {
		h.log.Errorw("create work item", "error", err)
		respond.Internal(w)
		return
	}

	h.log.Infow("work item created", "name", item.Name, "id", item.ID, "project", projectID)
	respond.Created(w, item)
}

// Update edits a work item's name, parent, weight or sort order.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.BadRequest(w, "work item id required")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}

	ctx := r.Context()
	item, err := h.storage.WorkItems().GetByID(ctx, id)
	if err != nil {
		h.log.Errorw("update work item: get", "error", err)
		respond.Internal(w)
		return
	}
	if item == nil {
		respond.NotFound(w, "work item not found")
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			respond.Validation(w, "name is required")
			return
		}
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.ParentID != nil {
		if *req.ParentID == "" {
			item.ParentID = nil
		} else {
			item.ParentID = req.ParentID
		}
	}
	if req.Weight != nil {
		item.Weight = *req.Weight
	}
	if req.SortOrder != nil {
		item.SortOrder = *req.SortOrder
	}

	item.UpdatedAt = time.Now()

	if err := h.storage.WorkItems().Update(ctx, item); err != nil {
		h.log.Errorw("update work item", "error", err)
		respond.Internal(w)
		return
	}

	respond.OK(w, item)
}

// Delete removes a childless work item.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.BadRequest(w, "work item id required")
		return
	}

	if err := h.storage.WorkItems().Delete(r.Context(), id); err != nil {
		if respond.DomainError(w, err) {
			return
		}
		h.log.Errorw("delete work item", "error", err)
		respond.Internal(w)
		return
	}

	respond.NoContent(w)
}

// SetStatus moves a work item to the status named in the URL.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status := models.WorkItemStatus(chi.URLParam(r, "status"))
	if id == "" {
		respond.BadRequest(w, "work item id required")
		return
	}

	if err := h.storage.WorkItems().SetStatus(r.Context(), id, status); err != nil {
		if respond.DomainError(w, err) {
			return
		}
		h.log.Errorw("set work item status", "error", err)
		respond.Internal(w)
		return
	}

	respond.OK(w, map[string]string{"id": id, "status": string(status)})
}

// SetProgress sets a work item's progress to the URL value, clamped to
// [0, 100].
func (h *Handler) SetProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.BadRequest(w, "work item id required")
		return
	}

	value, err := strconv.Atoi(chi.URLParam(r, "value"))
	if err != nil {
		respond.BadRequest(w, "progress must be an integer")
		return
	}

	if err := h.storage.WorkItems().SetProgress(r.Context(), id, value); err != nil {
		if respond.DomainError(w, err) {
			return
		}
		h.log.Errorw("set work item progress", "error", err)
		respond.Internal(w)
		return
	}

	respond.OK(w, map[string]any{"id": id, "progress": models.ClampProgress(value)})
}
