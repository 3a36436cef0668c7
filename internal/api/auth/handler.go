package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/calm-red-fox/siteops/internal/api/respond"
	"github.com/calm-red-fox/siteops/internal/metrics"
	"github.com/calm-red-fox/siteops/internal/storage"
)

// Handler handles authentication endpoints.
type Handler struct {
	storage        storage.Storage
	jwtService     *JWTService
	lockoutTracker *LockoutTracker
	log            *zap.SugaredLogger
}

// NewHandler creates a new auth handler.
func NewHandler(store storage.Storage, jwt *JWTService, lockout *LockoutTracker, log *zap.SugaredLogger) *Handler {
	return &Handler{
		storage:        store,
		jwtService:     jwt,
		lockoutTracker: lockout,
		log:            log,
	}
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Login handles user login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		respond.BadRequest(w, "username and password required")
		return
	}

	if h.lockoutTracker.IsLocked(req.Username) {
		remaining := h.lockoutTracker.RemainingLockoutTime(req.Username)
		h.log.Infow("login blocked, account locked", "username", req.Username, "remaining", remaining)
		respond.Error(w, http.StatusTooManyRequests, respond.CodeAccountLocked,
			"account temporarily locked due to too many failed attempts")
		return
	}

	ctx := r.Context()
	user, err := h.storage.Users().GetByUsername(ctx, req.Username)
	if err != nil {
		h.log.Errorw("login: get user", "error", err)
		respond.Internal(w)
		return
	}
	if user == nil {
		h.lockoutTracker.RecordFailure(req.Username)
		metrics.LoginFailures.Inc()
		h.log.Infow("login failed, unknown user", "username", req.Username)
		respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.lockoutTracker.RecordFailure(req.Username)
		metrics.LoginFailures.Inc()
		h.log.Infow("login failed, invalid password", "username", req.Username)
		respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "invalid credentials")
		return
	}

	h.lockoutTracker.ClearFailures(req.Username)

	accessToken, err := h.jwtService.GenerateToken(user)
	if err != nil {
		h.log.Errorw("login: generate token", "error", err)
		respond.Internal(w)
		return
	}

	h.log.Infow("login success", "username", req.Username)

	respond.OK(w, &LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   h.jwtService.TTLSeconds(),
		TokenType:   "Bearer",
	})
}
