// Package fleet exposes vehicle management and the checkout/checkin cycle.
package fleet

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

type CreateRequest struct {
	Plate            string `json:"plate"`
	Name             string `json:"name"`
	VehicleType      string `json:"vehicle_type"`
	OdometerKM       int    `json:"odometer_km"`
	FuelLevelPercent *int   `json:"fuel_level_percent"`
	PhotoURL         string `json:"photo_url"`
	Notes            string `json:"notes"`
}

type CheckoutRequest struct {
	ProjectID       *string `json:"project_id"`
	StartOdometerKM *int    `json:"start_odometer_km"`
	StartFuelPct    *int    `json:"start_fuel_percent"`
	NotesOut        string  `json:"notes_out"`
}

type CheckinRequest struct {
	EndOdometerKM int    `json:"end_odometer_km"`
	EndFuelPct    int    `json:"end_fuel_percent"`
	NotesIn       string `json:"notes_in"`
	DamagesReport string `json:"damages_report"`
	PhotosURLs    string `json:"photos_urls"`
}

// List returns all vehicles ordered by plate.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.storage.Vehicles().List(r.Context())
	if err != nil {
		h.log.Errorw("list vehicles", "error", err)
		respond.Internal(w)
		return
	}
	respond.OK(w, vehicles)
}

// Create registers a vehicle. Plates are unique across the fleet.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	if req.Plate == "" {
		respond.Validation(w, "plate is required")
		return
	}
	vt := models.VehicleType(req.VehicleType)
	if !models.ValidVehicleType(vt) {
		respond.Validation(w, "unknown vehicle_type")
		return
	}

	ctx := r.Context()
	existing, err := h.storage.Vehicles().GetByPlate(ctx, req.Plate)
	if err != nil {
		h.log.Errorw("create vehicle: plate lookup", "error", err)
		respond.Internal(w)
		return
	}
	if existing != nil {
		respond.Conflict(w, "a vehicle with this plate already exists")
		return
	}

	vehicle := models.NewVehicle(req.Plate, req.Name, vt)
	vehicle.ID = uuid.New().String()
	vehicle.OdometerKM = req.OdometerKM
	vehicle.PhotoURL = req.PhotoURL
	vehicle.Notes = req.Notes
	if req.FuelLevelPercent != nil {
		vehicle.FuelLevelPercent = *req.FuelLevelPercent
	}

	if err := h.storage.Vehicles().Create(ctx, vehicle); err != nil {
		h.log.Errorw("create vehicle", "error", err)
		respond.Internal(w)
		return
	}

	h.log.Infow("vehicle created", "id", vehicle.ID, "plate", vehicle.Plate)
	respond.Created(w, vehicle)
}

// GetByID returns one vehicle with its active session, if any.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.BadRequest(w, "vehicle id required")
		return
	}

	ctx := r.Context()
	vehicle, err := h.storage.Vehicles().GetByID(ctx, id)
	if err != nil {
		h.log.Errorw("get vehicle", "error", err)
		respond.Internal(w)
		return
	}
	if vehicle == nil {
		respond.NotFound(w, "vehicle not found")
		return
	}

	active, err := h.storage.Vehicles().GetActiveSessionForVehicle(ctx, id)
	if err != nil {
		h.log.Errorw("get vehicle: active session", "error", err)
		respond.Internal(w)
		return
	}

	respond.OK(w, map[string]any{
		"vehicle":        vehicle,
		"active_session": active,
	})
}

// Checkout takes a vehicle out for the caller. The vehicle must be
// available and the caller must not already hold one.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "id")
	if vehicleID == "" {
		respond.BadRequest(w, "vehicle id required")
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}

	ctx := r.Context()
	vehicle, err := h.storage.Vehicles().GetByID(ctx, vehicleID)
	if err != nil {
		h.log.Errorw("checkout: get vehicle", "error", err)
		respond.Internal(w)
		return
	}
	if vehicle == nil {
		respond.NotFound(w, "vehicle not found")
		return
	}

	// The vehicle's stored readings are the defaults; the caller may
	// correct them at the gate.
	startKM := vehicle.OdometerKM
	if req.StartOdometerKM != nil {
		startKM = *req.StartOdometerKM
	}
	startFuel := vehicle.FuelLevelPercent
	if req.StartFuelPct != nil {
		startFuel = *req.StartFuelPct
	}

	session := &models.VehicleSession{
		ID:              uuid.New().String(),
		VehicleID:       vehicleID,
		UserID:          middleware.GetUserID(ctx),
		ProjectID:       req.ProjectID,
		StartTime:       time.Now(),
		StartOdometerKM: startKM,
		StartFuelPct:    startFuel,
		NotesOut:        req.NotesOut,
		CreatedAt:       time.Now(),
	}

	if err := h.storage.Vehicles().Checkout(ctx, session); err != nil {
		if respond.DomainError(w, err) {
			return
		}
		h.log.Errorw("checkout vehicle", "error", err)
		respond.Internal(w)
		return
	}

	metrics.VehicleCheckouts.Inc()
	h.log.Infow("vehicle checked out", "vehicle", vehicleID, "session", session.ID, "user", session.UserID)
	respond.Created(w, session)
}

// Checkin returns a vehicle. Only the session owner or staff may close
// it. Checking in a closed session is an informational no-op; an odometer
// below the checkout reading is rejected and the session stays open.
func (h *Handler) Checkin(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		respond.BadRequest(w, "session id required")
		return
	}

	var req CheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}

	ctx := r.Context()
	session, err := h.storage.Vehicles().GetSession(ctx, sessionID)
	if err != nil {
		h.log.Errorw("checkin: get session", "error", err)
		respond.Internal(w)
		return
	}
	if session == nil {
		respond.NotFound(w, "vehicle session not found")
		return
	}

	userID := middleware.GetUserID(ctx)
	role := middleware.GetRole(ctx)
	if session.UserID != userID && !(role == models.RoleAdmin || role == models.RoleStaff) {
		respond.Forbidden(w)
		return
	}

	params := storage.CheckinParams{
		EndTime:       time.Now(),
		EndOdometerKM: req.EndOdometerKM,
		EndFuelPct:    req.EndFuelPct,
		NotesIn:       req.NotesIn,
		DamagesReport: req.DamagesReport,
		PhotosURLs:    req.PhotosURLs,
	}

	err = h.storage.Vehicles().Checkin(ctx, sessionID, params)
	if errors.Is(err, models.ErrAlreadyClosed) {
		respond.OK(w, map[string]any{
			"session": session,
			"note":    "session was already closed",
		})
		return
	}
	if err != nil {
		if respond.DomainError(w, err) {
			return
		}
		h.log.Errorw("checkin vehicle", "error", err)
		respond.Internal(w)
		return
	}

	closed, err := h.storage.Vehicles().GetSession(ctx, sessionID)
	if err != nil || closed == nil {
		h.log.Errorw("checkin: reload session", "error", err)
		respond.Internal(w)
		return
	}

	metrics.VehicleCheckins.Inc()
	h.log.Infow("vehicle checked in", "session", sessionID, "odometer_km", req.EndOdometerKM)
	respond.OK(w, map[string]any{"session": closed})
}
