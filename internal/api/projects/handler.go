// Package projects exposes project CRUD endpoints.
package projects

import (
	"encoding/json"
	"net/http"
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

// Request types
type CreateRequest struct {
	Name        string     `json:"name"`
	ClientName  string     `json:"client_name"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	BudgetEUR   float64    `json:"budget_eur"`
	CoverURL    string     `json:"cover_url"`
	Description string     `json:"description"`
}

type UpdateRequest struct {
	Name        *string    `json:"name"`
	ClientName  *string    `json:"client_name"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	BudgetEUR   *float64   `json:"budget_eur"`
	CoverURL    *string    `json:"cover_url"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
}

// List returns all projects.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.storage.Projects().List(r.Context())
	if err != nil {
		h.log.Errorw("list projects", "error", err)
		respond.Internal(w)
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	respond.OK(w, projects)
}

// Create creates a new project (staff only).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}

	if err := ValidateName(req.Name); err != nil {
		respond.Validation(w, err.Error())
		return
	}

	ctx := r.Context()

	existing, err := h.storage.Projects().GetByName(ctx, strings.TrimSpace(req.Name))
	if err != nil {
		h.log.Errorw("create project: check name", "error", err)
		respond.Internal(w)
		return
	}
	if existing != nil {
		respond.Conflict(w, "project name already exists")
		return
	}

	project := models.NewProject(strings.TrimSpace(req.Name), strings.TrimSpace(req.ClientName))
	project.ID = uuid.New().String()
	project.StartDate = req.StartDate
	project.EndDate = req.EndDate
	project.BudgetEUR = req.BudgetEUR
	project.CoverURL = req.CoverURL
	project.Description = strings.TrimSpace(req.Description)

	if err := h.storage.Projects().Create(ctx, project); err != nil {
		h.log.Errorw("create project", "error", err)
		respond.Internal(w)
		return
	}

	h.log.Infow("project created", "name", project.Name, "id", project.ID)
	respond.Created(w, project)
}

// GetByID returns a project by ID.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.BadRequest(w, "project id required")
		return
	}

	project, err := h.storage.Projects().GetByID(r.Context(), id)
	if err != nil {
		h.log.Errorw("get project", "error", err)
		respond.Internal(w)
		return
	}
	if project == nil {
		respond.NotFound(w, "project not found")
		return
	}

	respond.OK(w, project)
}

// Update updates a project (staff only).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.BadRequest(w, "project id required")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}

	ctx := r.Context()
	project, err := h.storage.Projects().GetByID(ctx, id)
	if err != nil {
		h.log.Errorw("update project: get", "error", err)
		respond.Internal(w)
		return
	}
	if project == nil {
		respond.NotFound(w, "project not found")
		return
	}

	if req.Name != nil {
		if err := ValidateName(*req.Name); err != nil {
			respond.Validation(w, err.Error())
			return
		}
		existing, err := h.storage.Projects().GetByName(ctx, strings.TrimSpace(*req.Name))
		if err != nil {
			h.log.Errorw("update project: check name", "error", err)
			respond.Internal(w)
			return
		}
		if existing != nil && existing.ID != id {
			respond.Conflict(w, "project name already exists")
			return
		}
		project.Name = strings.TrimSpace(*req.Name)
	}
	if req.ClientName != nil {
		project.ClientName = strings.TrimSpace(*req.ClientName)
	}
	if req.StartDate != nil {
		project.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		project.EndDate = req.EndDate
	}
	if req.BudgetEUR != nil {
		project.BudgetEUR = *req.BudgetEUR
	}
	if req.CoverURL != nil {
		project.CoverURL = *req.CoverURL
	}
	if req.Description != nil {
		project.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		status := models.ProjectStatus(*req.Status)
		if !models.ValidProjectStatus(status) {
			respond.Validation(w, "invalid status")
			return
		}
		project.Status = status
	}

	project.UpdatedAt = time.Now()

	if err := h.storage.Projects().Update(ctx, project); err != nil {
		h.log.Errorw("update project", "error", err)
		respond.Internal(w)
		return
	}

	h.log.Infow("project updated", "name", project.Name, "id", project.ID)
	respond.OK(w, project)
}

// Delete deletes a project (staff only). Work items, sessions and costs
// cascade in the schema.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.BadRequest(w, "project id required")
		return
	}

	ctx := r.Context()
	project, err := h.storage.Projects().GetByID(ctx, id)
	if err != nil {
		h.log.Errorw("delete project: get", "error", err)
		respond.Internal(w)
		return
	}
	if project == nil {
		respond.NotFound(w, "project not found")
		return
	}

	if err := h.storage.Projects().Delete(ctx, id); err != nil {
		h.log.Errorw("delete project", "error", err)
		respond.Internal(w)
		return
	}

	h.log.Infow("project deleted", "name", project.Name, "id", project.ID)
	respond.NoContent(w)
}
