package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/calm-red-fox/siteops/internal/models"
)

func checkoutTestVehicle(t *testing.T, store *SQLiteStorage, vehicleID, userID string, odometer, fuel int) *models.VehicleSession {
	t.Helper()
	session := &models.VehicleSession{
		ID:              uuid.New().String(),
		VehicleID:       vehicleID,
		UserID:          userID,
		StartTime:       time.Now(),
		StartOdometerKM: odometer,
		StartFuelPct:    fuel,
		CreatedAt:       time.Now(),
	}
	if err := store.Vehicles().Checkout(context.Background(), session); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return session
}

func TestVehicleRepository_CRUD(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	vehicle := createTestVehicle(t, store, "AB123CD")

	got, err := store.Vehicles().GetByID(ctx, vehicle.ID)
	if err != nil {
		t.Fatalf("get vehicle: %v", err)
	}
	if got == nil {
		t.Fatal("vehicle should exist")
	}
	if got.Status != models.VehicleAvailable {
		t.Errorf("status = %v, want %v", got.Status, models.VehicleAvailable)
	}

	got, err = store.Vehicles().GetByPlate(ctx, "AB123CD")
	if err != nil {
		t.Fatalf("get vehicle by plate: %v", err)
	}
	if got == nil {
		t.Fatal("vehicle should exist")
	}

	got.Status = models.VehicleMaintenance
	got.Notes = "tagliando"
	if err := store.Vehicles().Update(ctx, got); err != nil {
		t.Fatalf("update vehicle: %v", err)
	}
	updated, err := store.Vehicles().GetByID(ctx, vehicle.ID)
	if err != nil {
		t.Fatalf("get updated vehicle: %v", err)
	}
	if updated.Status != models.VehicleMaintenance {
		t.Errorf("status = %v, want %v", updated.Status, models.VehicleMaintenance)
	}

	createTestVehicle(t, store, "ZZ999XX")
	vehicles, err := store.Vehicles().List(ctx)
	if err != nil {
		t.Fatalf("list vehicles: %v", err)
	}
	if len(vehicles) != 2 {
		t.Fatalf("got %d vehicles, want 2", len(vehicles))
	}
	if vehicles[0].Plate != "AB123CD" {
		t.Errorf("first plate = %s, want AB123CD", vehicles[0].Plate)
	}
}

func TestVehicleRepository_CheckoutCheckinCycle(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	driver := createTestUser(t, store, "driver1", models.RoleWorker)
	vehicle := createTestVehicle(t, store, "AB123CD")

	session := checkoutTestVehicle(t, store, vehicle.ID, driver.ID, 100, 80)

	// Start readings are mirrored and the vehicle is out
	out, err := store.Vehicles().GetByID(ctx, vehicle.ID)
	if err != nil {
		t.Fatalf("get vehicle: %v", err)
	}
	if out.Status != models.VehicleInUse {
		t.Errorf("status = %v, want %v", out.Status, models.VehicleInUse)
	}
	if out.OdometerKM != 100 || out.FuelLevelPercent != 80 {
		t.Errorf("readings = %d km / %d%%, want 100 km / 80%%", out.OdometerKM, out.FuelLevelPercent)
	}

	active, err := store.Vehicles().GetActiveSessionForVehicle(ctx, vehicle.ID)
	if err != nil {
		t.Fatalf("get active session: %v", err)
	}
	if active == nil || active.ID != session.ID {
		t.Fatalf("active session = %v, want %s", active, session.ID)
	}

	err = store.Vehicles().Checkin(ctx, session.ID, CheckinParams{
		EndTime:       time.Now(),
		EndOdometerKM: 250,
		EndFuelPct:    40,
		NotesIn:       "rifornire",
	})
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}

	back, err := store.Vehicles().GetByID(ctx, vehicle.ID)
	if err != nil {
		t.Fatalf("get vehicle: %v", err)
	}
	if back.Status != models.VehicleAvailable {
		t.Errorf("status = %v, want %v", back.Status, models.VehicleAvailable)
	}
	if back.OdometerKM != 250 || back.FuelLevelPercent != 40 {
		t.Errorf("readings = %d km / %d%%, want 250 km / 40%%", back.OdometerKM, back.FuelLevelPercent)
	}

	closed, err := store.Vehicles().GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if closed.IsActive() {
		t.Error("session should be closed")
	}
	if closed.EndOdometerKM == nil || *closed.EndOdometerKM != 250 {
		t.Errorf("end odometer = %v, want 250", closed.EndOdometerKM)
	}
	if closed.NotesIn != "rifornire" {
		t.Errorf("notes in = %q, want rifornire", closed.NotesIn)
	}

	err = store.Vehicles().Checkin(ctx, session.ID, CheckinParams{EndTime: time.Now(), EndOdometerKM: 260})
	if !errors.Is(err, models.ErrAlreadyClosed) {
		t.Errorf("second checkin = %v, want ErrAlreadyClosed", err)
	}
}

func TestVehicleRepository_CheckoutGuards(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	driver := createTestUser(t, store, "driver1", models.RoleWorker)
	colleague := createTestUser(t, store, "driver2", models.RoleWorker)
	van := createTestVehicle(t, store, "AB123CD")
	truck := createTestVehicle(t, store, "CD456EF")

	checkoutTestVehicle(t, store, van.ID, driver.ID, 100, 80)

	// Same vehicle, different driver
	busy := &models.VehicleSession{
		ID: uuid.New().String(), VehicleID: van.ID, UserID: colleague.ID,
		StartTime: time.Now(), CreatedAt: time.Now(),
	}
	err := store.Vehicles().Checkout(ctx, busy)
	if !errors.Is(err, models.ErrVehicleBusy) {
		t.Fatalf("busy vehicle checkout = %v, want ErrVehicleBusy", err)
	}

	// Different vehicle, same driver
	double := &models.VehicleSession{
		ID: uuid.New().String(), VehicleID: truck.ID, UserID: driver.ID,
		StartTime: time.Now(), CreatedAt: time.Now(),
	}
	err = store.Vehicles().Checkout(ctx, double)
	if !errors.Is(err, models.ErrUserBusy) {
		t.Fatalf("busy driver checkout = %v, want ErrUserBusy", err)
	}

	// The colleague can still take the other vehicle
	checkoutTestVehicle(t, store, truck.ID, colleague.ID, 5000, 60)
}

func TestVehicleRepository_CheckinOdometerRegression(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	driver := createTestUser(t, store, "driver1", models.RoleWorker)
	vehicle := createTestVehicle(t, store, "AB123CD")
	session := checkoutTestVehicle(t, store, vehicle.ID, driver.ID, 100, 80)

	err := store.Vehicles().Checkin(ctx, session.ID, CheckinParams{
		EndTime:       time.Now(),
		EndOdometerKM: 90,
		EndFuelPct:    70,
	})
	if !errors.Is(err, models.ErrOdometerRegression) {
		t.Fatalf("regressing checkin = %v, want ErrOdometerRegression", err)
	}

	// The session stays open and the vehicle stays out
	still, err := store.Vehicles().GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !still.IsActive() {
		t.Error("session should still be open")
	}
	v, err := store.Vehicles().GetByID(ctx, vehicle.ID)
	if err != nil {
		t.Fatalf("get vehicle: %v", err)
	}
	if v.Status != models.VehicleInUse {
		t.Errorf("status = %v, want %v", v.Status, models.VehicleInUse)
	}

	// Equal reading is a valid no-distance trip
	err = store.Vehicles().Checkin(ctx, session.ID, CheckinParams{
		EndTime:       time.Now(),
		EndOdometerKM: 100,
		EndFuelPct:    80,
	})
	if err != nil {
		t.Fatalf("equal-odometer checkin: %v", err)
	}
}

func TestVehicleRepository_SessionLookups(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	driver := createTestUser(t, store, "driver1", models.RoleWorker)
	vehicle := createTestVehicle(t, store, "AB123CD")

	first := checkoutTestVehicle(t, store, vehicle.ID, driver.ID, 100, 80)
	if err := store.Vehicles().Checkin(ctx, first.ID, CheckinParams{
		EndTime: time.Now(), EndOdometerKM: 150, EndFuelPct: 60,
	}); err != nil {
		t.Fatalf("checkin: %v", err)
	}
	second := checkoutTestVehicle(t, store, vehicle.ID, driver.ID, 150, 60)

	byUser, err := store.Vehicles().GetActiveSessionForUser(ctx, driver.ID)
	if err != nil {
		t.Fatalf("get active for user: %v", err)
	}
	if byUser == nil || byUser.ID != second.ID {
		t.Fatalf("active session = %v, want %s", byUser, second.ID)
	}

	history, err := store.Vehicles().ListSessionsByVehicle(ctx, vehicle.ID)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d sessions, want 2", len(history))
	}
}
