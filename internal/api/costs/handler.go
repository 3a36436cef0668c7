// Package costs exposes the expense document workflow: registration by
// anyone, approval and rejection by staff.
package costs

import (
	"encoding/json"
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

type CreateRequest struct {
	ProjectID  string  `json:"project_id"`
	WorkItemID *string `json:"work_item_id"`
	DocType    string  `json:"doc_type"`
	AmountEUR  float64 `json:"amount_eur"`
	WithVAT    *bool   `json:"with_vat"`
	DocURL     string  `json:"doc_url"`
	Note       string  `json:"note"`
}

// List returns cost documents newest first. ?state= narrows to one
// workflow state.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var status models.CostStatus
	if s := r.URL.Query().Get("state"); s != "" {
		status = models.CostStatus(s)
		if !models.ValidCostStatus(status) {
			respond.Validation(w, "unknown state filter")
			return
		}
	}

	docs, err := h.storage.Costs().List(r.Context(), status)
	if err != nil {
		h.log.Errorw("list cost documents", "error", err)
		respond.Internal(w)
		return
	}
	respond.OK(w, docs)
}

// Create registers a pending expense for the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	if req.ProjectID == "" {
		respond.Validation(w, "project_id is required")
		return
	}
	docType := models.CostDocType(req.DocType)
	if !models.ValidCostDocType(docType) {
		respond.Validation(w, "unknown doc_type")
		return
	}
	if req.AmountEUR <= 0 {
		respond.Validation(w, "amount_eur must be positive")
		return
	}

	ctx := r.Context()
	project, err := h.storage.Projects().GetByID(ctx, req.ProjectID)
	if err != nil {
		h.log.Errorw("create cost: get project", "error", err)
		respond.Internal(w)
		return
	}
	if project == nil {
		respond.NotFound(w, "project not found")
		return
	}

	doc := models.NewCostDocument(req.ProjectID, middleware.GetUserID(ctx), docType, req.AmountEUR)
	doc.ID = uuid.New().String()
	doc.WorkItemID = req.WorkItemID
	doc.DocURL = req.DocURL
	doc.Note = req.Note
	if req.WithVAT != nil {
		doc.WithVAT = *req.WithVAT
	}

	if err := h.storage.Costs().Create(ctx, doc); err != nil {
		if respond.DomainError(w, err) {
			return
		}
		h.log.Errorw("create cost document", "error", err)
		respond.Internal(w)
		return
	}

	h.log.Infow("cost document created", "id", doc.ID, "project", doc.ProjectID, "amount_eur", doc.AmountEUR)
	respond.Created(w, doc)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	respond.OK(w, doc)
}

// Delete removes a document. Staff may delete any, workers only their own.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.loadDocument(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	caller := &models.User{ID: middleware.GetUserID(ctx), Role: middleware.GetRole(ctx)}
	if !doc.CanDelete(caller) {
		respond.Forbidden(w)
		return
	}

	if err := h.storage.Costs().Delete(ctx, doc.ID); err != nil {
		if respond.DomainError(w, err) {
			return
		}
		h.log.Errorw("delete cost document", "error", err)
		respond.Internal(w)
		return
	}
	respond.NoContent(w)
}

// Approve moves a document to approved, stamping the caller.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.CostApproved)
}

// Reject moves a document to rejected, stamping the caller.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.CostRejected)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, to models.CostStatus) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.BadRequest(w, "document id required")
		return
	}

	ctx := r.Context()
	approverID := middleware.GetUserID(ctx)
	if err := h.storage.Costs().Transition(ctx, id, to, approverID, time.Now()); err != nil {
		if respond.DomainError(w, err) {
			return
		}
		h.log.Errorw("transition cost document", "id", id, "to", to, "error", err)
		respond.Internal(w)
		return
	}

	doc, err := h.storage.Costs().GetByID(ctx, id)
	if err != nil || doc == nil {
		h.log.Errorw("transition cost document: reload", "error", err)
		respond.Internal(w)
		return
	}

	metrics.CostTransitions.WithLabelValues(string(to)).Inc()
	h.log.Infow("cost document transitioned", "id", id, "to", to, "by", approverID)
	respond.OK(w, doc)
}

func (h *Handler) loadDocument(w http.ResponseWriter, r *http.Request) (*models.CostDocument, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.BadRequest(w, "document id required")
		return nil, false
	}

	doc, err := h.storage.Costs().GetByID(r.Context(), id)
	if err != nil {
		h.log.Errorw("get cost document", "error", err)
		respond.Internal(w)
		return nil, false
	}
	if doc == nil {
		respond.NotFound(w, "cost document not found")
		return nil, false
	}
	return doc, true
}
