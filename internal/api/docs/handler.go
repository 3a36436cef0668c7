// Package docs exposes each user's HR document tree and the
// organization-wide broadcast board.
package docs

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

type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

type CreateBroadcastRequest struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	FileURL string `json:"file_url"`
}

// ListRootFolders returns the caller's top-level folders sorted by name.
func (h *Handler) ListRootFolders(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	folders, err := h.storage.Docs().ListRootFolders(r.Context(), ownerID)
	if err != nil {
		h.log.Errorw("list root folders", "error", err)
		respond.Internal(w)
		return
	}
	respond.OK(w, folders)
}

// CreateFolder adds a folder to the caller's tree. A parent, when given,
// must belong to the caller.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		respond.Validation(w, "name is required")
		return
	}

	ctx := r.Context()
	ownerID := middleware.GetUserID(ctx)

	if req.ParentID != nil {
		parent, err := h.storage.Docs().GetFolder(ctx, *req.ParentID)
		if err != nil {
			h.log.Errorw("create folder: get parent", "error", err)
			respond.Internal(w)
			return
		}
		if parent == nil {
			respond.NotFound(w, "parent folder not found")
			return
		}
		if parent.OwnerID != ownerID {
			respond.Forbidden(w)
			return
		}
	}

	folder := &models.UserFolder{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Name:      req.Name,
		ParentID:  req.ParentID,
		CreatedAt: time.Now(),
	}

	if err := h.storage.Docs().CreateFolder(ctx, folder); err != nil {
		h.log.Errorw("create folder", "error", err)
		respond.Internal(w)
		return
	}

	respond.Created(w, folder)
}

// GetFolder returns one of the caller's folders with its child folders
// and files.
func (h *Handler) GetFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.BadRequest(w, "folder id required")
		return
	}

	ctx := r.Context()
	folder, err := h.storage.Docs().GetFolder(ctx, id)
	if err != nil {
		h.log.Errorw("get folder", "error", err)
		respond.Internal(w)
		return
	}
	if folder == nil {
		respond.NotFound(w, "folder not found")
		return
	}
	if folder.OwnerID != middleware.GetUserID(ctx) {
		respond.Forbidden(w)
		return
	}

	children, err := h.storage.Docs().ListChildFolders(ctx, id)
	if err != nil {
		h.log.Errorw("get folder: children", "error", err)
		respond.Internal(w)
		return
	}
	files, err := h.storage.Docs().ListFilesByFolder(ctx, id)
	if err != nil {
		h.log.Errorw("get folder: files", "error", err)
		respond.Internal(w)
		return
	}

	respond.OK(w, map[string]any{
		"folder":  folder,
		"folders": children,
		"files":   files,
	})
}

// GetFile returns one of the caller's files, stamping read_at on first
// view.
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	file, ok := h.loadOwnFile(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if file.ReadAt == nil {
		if err := h.storage.Docs().MarkRead(ctx, file.ID, time.Now()); err != nil {
			h.log.Errorw("mark file read", "error", err)
			respond.Internal(w)
			return
		}
		file, err := h.storage.Docs().GetFile(ctx, file.ID)
		if err != nil || file == nil {
			h.log.Errorw("mark file read: reload", "error", err)
			respond.Internal(w)
			return
		}
		respond.OK(w, file)
		return
	}

	respond.OK(w, file)
}

// Acknowledge stamps ack_at on a file that requires acknowledgment.
// Repeats and files without the requirement change nothing.
func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	file, ok := h.loadOwnFile(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.storage.Docs().Acknowledge(ctx, file.ID, time.Now()); err != nil {
		h.log.Errorw("acknowledge file", "error", err)
		respond.Internal(w)
		return
	}

	file, err := h.storage.Docs().GetFile(ctx, file.ID)
	if err != nil || file == nil {
		h.log.Errorw("acknowledge file: reload", "error", err)
		respond.Internal(w)
		return
	}
	respond.OK(w, file)
}

// ListBroadcasts returns announcements visible to everyone, newest first.
func (h *Handler) ListBroadcasts(w http.ResponseWriter, r *http.Request) {
	list, err := h.storage.Docs().ListBroadcasts(r.Context())
	if err != nil {
		h.log.Errorw("list broadcasts", "error", err)
		respond.Internal(w)
		return
	}
	respond.OK(w, list)
}

// CreateBroadcast publishes an announcement signed by the caller.
func (h *Handler) CreateBroadcast(w http.ResponseWriter, r *http.Request) {
	var req CreateBroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	if req.Title == "" {
		respond.Validation(w, "title is required")
		return
	}

	ctx := r.Context()
	creator := middleware.GetUserID(ctx)
	doc := &models.BroadcastDoc{
		ID:        uuid.New().String(),
		Title:     req.Title,
		Body:      req.Body,
		FileURL:   req.FileURL,
		CreatedBy: &creator,
		CreatedAt: time.Now(),
	}

	if err := h.storage.Docs().CreateBroadcast(ctx, doc); err != nil {
		h.log.Errorw("create broadcast", "error", err)
		respond.Internal(w)
		return
	}

	h.log.Infow("broadcast published", "id", doc.ID, "title", doc.Title)
	respond.Created(w, doc)
}

func (h *Handler) loadOwnFile(w http.ResponseWriter, r *http.Request) (*models.UserFile, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.BadRequest(w, "file id required")
		return nil, false
	}

	ctx := r.Context()
	file, err := h.storage.Docs().GetFile(ctx, id)
	if err != nil {
		h.log.Errorw("get file", "error", err)
		respond.Internal(w)
		return nil, false
	}
	if file == nil {
		respond.NotFound(w, "file not found")
		return nil, false
	}
	if file.OwnerID != middleware.GetUserID(ctx) {
		respond.Forbidden(w)
		return nil, false
	}
	return file, true
}
