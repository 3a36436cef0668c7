package users

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/calm-red-fox/siteops/internal/api/auth"
	"github.com/calm-red-fox/siteops/internal/api/middleware"
	"github.com/calm-red-fox/siteops/internal/api/respond"
	"github.com/calm-red-fox/siteops/internal/models"
	"github.com/calm-red-fox/siteops/internal/storage"
)

// UserResponse is a user without sensitive fields.
type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func userToResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}

// Handler handles user management endpoints.
type Handler struct {
	storage storage.Storage
	log     *zap.SugaredLogger
}

// NewHandler creates a new user handler.
func NewHandler(store storage.Storage, log *zap.SugaredLogger) *Handler {
	return &Handler{storage: store, log: log}
}

// CreateRequest is the request body for creating a user.
type CreateRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// UpdateRequest is the request body for updating a user.
type UpdateRequest struct {
	Email     string  `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Role      string  `json:"role,omitempty"`
}

// ChangePasswordRequest is the request body for changing password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// List returns all users (admin only).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.storage.Users().List(r.Context())
	if err != nil {
		h.log.Errorw("list users", "error", err)
		respond.Internal(w)
		return
	}

	resp := make([]*UserResponse, len(users))
	for i, u := range users {
		resp[i] = userToResponse(u)
	}
	respond.OK(w, resp)
}

// Create creates a new user (admin only).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}

	if err := ValidateUsername(req.Username); err != nil {
		respond.Validation(w, err.Error())
		return
	}
	if err := ValidateEmail(req.Email); err != nil {
		respond.Validation(w, err.Error())
		return
	}
	if err := auth.ValidatePasswordOrError(req.Password); err != nil {
		respond.Validation(w, err.Error())
		return
	}
	role, err := ValidateRole(req.Role)
	if err != nil {
		respond.Validation(w, err.Error())
		return
	}

	ctx := r.Context()

	existing, err := h.storage.Users().GetByUsername(ctx, req.Username)
	if err != nil {
		h.log.Errorw("create user: check username", "error", err)
		respond.Internal(w)
		return
	}
	if existing != nil {
		respond.Conflict(w, "username already exists")
		return
	}

	existing, err = h.storage.Users().GetByEmail(ctx, req.Email)
	if err != nil {
		h.log.Errorw("create user: check email", "error", err)
		respond.Internal(w)
		return
	}
	if existing != nil {
		respond.Conflict(w, "email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.Errorw("create user: hash password", "error", err)
		respond.Internal(w)
		return
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.storage.Users().Create(ctx, user); err != nil {
		h.log.Errorw("create user", "error", err)
		respond.Internal(w)
		return
	}

	h.log.Infow("user created", "username", user.Username, "id", user.ID, "role", user.Role)
	respond.Created(w, userToResponse(user))
}

// GetByID returns a user by ID (admin or self).
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		respond.BadRequest(w, "user id required")
		return
	}

	user, err := h.storage.Users().GetByID(r.Context(), userID)
	if err != nil {
		h.log.Errorw("get user", "error", err)
		respond.Internal(w)
		return
	}
	if user == nil {
		respond.NotFound(w, "user not found")
		return
	}

	respond.OK(w, userToResponse(user))
}

// Update updates a user (admin or self, role change admin only).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		respond.BadRequest(w, "user id required")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}

	ctx := r.Context()
	currentUserRole := middleware.GetRole(ctx)
	currentUserID := middleware.GetUserID(ctx)

	user, err := h.storage.Users().GetByID(ctx, userID)
	if err != nil {
		h.log.Errorw("update user: get user", "error", err)
		respond.Internal(w)
		return
	}
	if user == nil {
		respond.NotFound(w, "user not found")
		return
	}

	if req.Email != "" {
		if err := ValidateEmail(req.Email); err != nil {
			respond.Validation(w, err.Error())
			return
		}

		existing, err := h.storage.Users().GetByEmail(ctx, req.Email)
		if err != nil {
			h.log.Errorw("update user: check email", "error", err)
			respond.Internal(w)
			return
		}
		if existing != nil && existing.ID != userID {
			respond.Conflict(w, "email already exists")
			return
		}

		user.Email = strings.TrimSpace(req.Email)
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}

	// Role changes are admin only, and never on your own account.
	if req.Role != "" {
		if currentUserRole != models.RoleAdmin {
			respond.Forbidden(w)
			return
		}
		if userID == currentUserID && req.Role != "admin" {
			respond.BadRequest(w, "cannot change own role")
			return
		}

		role, err := ValidateRole(req.Role)
		if err != nil {
			respond.Validation(w, err.Error())
			return
		}
		user.Role = role
	}

	user.UpdatedAt = time.Now()

	if err := h.storage.Users().Update(ctx, user); err != nil {
		h.log.Errorw("update user", "error", err)
		respond.Internal(w)
		return
	}

	h.log.Infow("user updated", "username", user.Username, "id", user.ID)
	respond.OK(w, userToResponse(user))
}

// Delete deletes a user (admin only).
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		respond.BadRequest(w, "user id required")
		return
	}

	ctx := r.Context()
	if userID == middleware.GetUserID(ctx) {
		respond.BadRequest(w, "cannot delete own account")
		return
	}

	user, err := h.storage.Users().GetByID(ctx, userID)
	if err != nil {
		h.log.Errorw("delete user: get user", "error", err)
		respond.Internal(w)
		return
	}
	if user == nil {
		respond.NotFound(w, "user not found")
		return
	}

	if err := h.storage.Users().Delete(ctx, userID); err != nil {
		h.log.Errorw("delete user", "error", err)
		respond.Internal(w)
		return
	}

	h.log.Infow("user deleted", "username", user.Username, "id", user.ID)
	respond.NoContent(w)
}

// GetCurrentUser returns the current authenticated user.
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.storage.Users().GetByID(ctx, middleware.GetUserID(ctx))
	if err != nil {
		h.log.Errorw("get current user", "error", err)
		respond.Internal(w)
		return
	}
	if user == nil {
		respond.NotFound(w, "user not found")
		return
	}

	respond.OK(w, userToResponse(user))
}

// ChangePassword changes the current user's password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}

	if req.CurrentPassword == "" {
		respond.Validation(w, "current_password is required")
		return
	}
	if err := auth.ValidatePasswordOrError(req.NewPassword); err != nil {
		respond.Validation(w, err.Error())
		return
	}

	ctx := r.Context()
	user, err := h.storage.Users().GetByID(ctx, middleware.GetUserID(ctx))
	if err != nil {
		h.log.Errorw("change password: get user", "error", err)
		respond.Internal(w)
		return
	}
	if user == nil {
		respond.NotFound(w, "user not found")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		respond.Validation(w, "current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.log.Errorw("change password: hash", "error", err)
		respond.Internal(w)
		return
	}

	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now()

	if err := h.storage.Users().Update(ctx, user); err != nil {
		h.log.Errorw("change password: update", "error", err)
		respond.Internal(w)
		return
	}

	h.log.Infow("password changed", "username", user.Username, "id", user.ID)
	respond.OK(w, map[string]string{"status": "password changed"})
}
