package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/calm-red-fox/siteops/internal/models"
)

type sqliteVehicleRepo struct {
	db *sql.DB
}

const vehicleColumns = `id, plate, name, vehicle_type, status, odometer_km, fuel_level_percent, photo_url, notes, created_at`

func (r *sqliteVehicleRepo) Create(ctx context.Context, vehicle *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (` + vehicleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		vehicle.ID, vehicle.Plate, vehicle.Name, vehicle.VehicleType, vehicle.Status,
		vehicle.OdometerKM, vehicle.FuelLevelPercent,
		nullString(vehicle.PhotoURL), nullString(vehicle.Notes), vehicle.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

func scanVehicle(row interface{ Scan(...any) error }) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{}
	var photoURL, notes sql.NullString
	var vehicleType, status string
	err := row.Scan(
		&vehicle.ID, &vehicle.Plate, &vehicle.Name, &vehicleType, &status,
		&vehicle.OdometerKM, &vehicle.FuelLevelPercent,
		&photoURL, &notes, &vehicle.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	vehicle.VehicleType = models.VehicleType(vehicleType)
	vehicle.Status = models.VehicleStatus(status)
	vehicle.PhotoURL = photoURL.String
	vehicle.Notes = notes.String
	return vehicle, nil
}

func (r *sqliteVehicleRepo) GetByID(ctx context.Context, id string) (*models.Vehicle, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, id)
	vehicle, err := scanVehicle(row)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle by id: %w", err)
	}
	return vehicle, nil
}

func (r *sqliteVehicleRepo) GetByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE plate = ?`, plate)
	vehicle, err := scanVehicle(row)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle by plate: %w", err)
	}
	return vehicle, nil
}

func (r *sqliteVehicleRepo) Update(ctx context.Context, vehicle *models.Vehicle) error {
	query := `
		UPDATE vehicles
		SET plate = ?, name = ?, vehicle_type = ?, status = ?, odometer_km = ?,
			fuel_level_percent = ?, photo_url = ?, notes = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		vehicle.Plate, vehicle.Name, vehicle.VehicleType, vehicle.Status,
		vehicle.OdometerKM, vehicle.FuelLevelPercent,
		nullString(vehicle.PhotoURL), nullString(vehicle.Notes), vehicle.ID,
	)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	return nil
}

func (r *sqliteVehicleRepo) List(ctx context.Context) ([]*models.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY plate`)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, rows.Err()
}

// Checkout opens a vehicle session. Both busy guards and the mutations run
// in one transaction so two concurrent checkouts cannot both pass the
// checks.
func (r *sqliteVehicleRepo) Checkout(ctx context.Context, session *models.VehicleSession) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkout: %w", err)
	}
	defer tx.Rollback()

	var vehicleBusy int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vehicle_sessions WHERE vehicle_id = ? AND end_time IS NULL`,
		session.VehicleID,
	).Scan(&vehicleBusy)
	if err != nil {
		return fmt.Errorf("check vehicle session: %w", err)
	}
	if vehicleBusy > 0 {
		return models.ErrVehicleBusy
	}

	var userBusy int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vehicle_sessions WHERE user_id = ? AND end_time IS NULL`,
		session.UserID,
	).Scan(&userBusy)
	if err != nil {
		return fmt.Errorf("check user session: %w", err)
	}
	if userBusy > 0 {
		return models.ErrUserBusy
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vehicle_sessions (id, vehicle_id, user_id, project_id, start_time, end_time,
			start_odometer_km, end_odometer_km, start_fuel_percent, end_fuel_percent,
			notes_out, notes_in, damages_report, photos_urls, created_at)
		VALUES (?, ?, ?, ?, ?, NULL, ?, NULL, ?, NULL, ?, NULL, NULL, NULL, ?)
	`,
		session.ID, session.VehicleID, session.UserID, nullStringPtr(session.ProjectID),
		session.StartTime, session.StartOdometerKM, session.StartFuelPct,
		nullString(session.NotesOut), session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert vehicle session: %w", err)
	}

	// Mirror the start readings and mark the vehicle out.
	_, err = tx.ExecContext(ctx,
		`UPDATE vehicles SET status = ?, odometer_km = ?, fuel_level_percent = ? WHERE id = ?`,
		models.VehicleInUse, session.StartOdometerKM, session.StartFuelPct, session.VehicleID,
	)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}

	return tx.Commit()
}

// Checkin closes a vehicle session and returns the vehicle to available,
// mirroring the final readings. An end odometer below the start leaves the
// session open and nothing changed.
func (r *sqliteVehicleRepo) Checkin(ctx context.Context, sessionID string, params CheckinParams) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkin: %w", err)
	}
	defer tx.Rollback()

	var vehicleID string
	var endTime sql.NullTime
	var startOdometer int
	err = tx.QueryRowContext(ctx,
		`SELECT vehicle_id, end_time, start_odometer_km FROM vehicle_sessions WHERE id = ?`,
		sessionID,
	).Scan(&vehicleID, &endTime, &startOdometer)
	if err == sql.ErrNoRows {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load vehicle session: %w", err)
	}

	if endTime.Valid {
		return models.ErrAlreadyClosed
	}
	if params.EndOdometerKM < startOdometer {
		return models.ErrOdometerRegression
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE vehicle_sessions
		SET end_time = ?, end_odometer_km = ?, end_fuel_percent = ?,
			notes_in = ?, damages_report = ?, photos_urls = ?
		WHERE id = ?
	`,
		params.EndTime, params.EndOdometerKM, params.EndFuelPct,
		nullString(params.NotesIn), nullString(params.DamagesReport),
		nullString(params.PhotosURLs), sessionID,
	)
	if err != nil {
		return fmt.Errorf("close vehicle session: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE vehicles SET status = ?, odometer_km = ?, fuel_level_percent = ? WHERE id = ?`,
		models.VehicleAvailable, params.EndOdometerKM, params.EndFuelPct, vehicleID,
	)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}

	return tx.Commit()
}

const vehicleSessionColumns = `id, vehicle_id, user_id, project_id, start_time, end_time,
	start_odometer_km, end_odometer_km, start_fuel_percent, end_fuel_percent,
	notes_out, notes_in, damages_report, photos_urls, created_at`

func scanVehicleSession(row interface{ Scan(...any) error }) (*models.VehicleSession, error) {
	session := &models.VehicleSession{}
	var projectID, notesOut, notesIn, damages, photos sql.NullString
	var endTime sql.NullTime
	var endOdometer, endFuel sql.NullInt64
	err := row.Scan(
		&session.ID, &session.VehicleID, &session.UserID, &projectID,
		&session.StartTime, &endTime,
		&session.StartOdometerKM, &endOdometer, &session.StartFuelPct, &endFuel,
		&notesOut, &notesIn, &damages, &photos, &session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.ProjectID = stringPtr(projectID)
	session.EndTime = timePtr(endTime)
	session.EndOdometerKM = intPtr(endOdometer)
	session.EndFuelPct = intPtr(endFuel)
	session.NotesOut = notesOut.String
	session.NotesIn = notesIn.String
	session.DamagesReport = damages.String
	session.PhotosURLs = photos.String
	return session, nil
}

func (r *sqliteVehicleRepo) getSession(ctx context.Context, query string, args ...any) (*models.VehicleSession, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	session, err := scanVehicleSession(row)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle session: %w", err)
	}
	return session, nil
}

func (r *sqliteVehicleRepo) GetSession(ctx context.Context, id string) (*models.VehicleSession, error) {
	return r.getSession(ctx, `SELECT `+vehicleSessionColumns+` FROM vehicle_sessions WHERE id = ?`, id)
}

func (r *sqliteVehicleRepo) GetActiveSessionForVehicle(ctx context.Context, vehicleID string) (*models.VehicleSession, error) {
	return r.getSession(ctx,
		`SELECT `+vehicleSessionColumns+` FROM vehicle_sessions WHERE vehicle_id = ? AND end_time IS NULL`,
		vehicleID,
	)
}

func (r *sqliteVehicleRepo) GetActiveSessionForUser(ctx context.Context, userID string) (*models.VehicleSession, error) {
	return r.getSession(ctx,
		`SELECT `+vehicleSessionColumns+` FROM vehicle_sessions WHERE user_id = ? AND end_time IS NULL`,
		userID,
	)
}

func (r *sqliteVehicleRepo) ListSessionsByVehicle(ctx context.Context, vehicleID string) ([]*models.VehicleSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+vehicleSessionColumns+` FROM vehicle_sessions WHERE vehicle_id = ? ORDER BY start_time DESC, id DESC`,
		vehicleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list vehicle sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.VehicleSession
	for rows.Next() {
		session, err := scanVehicleSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}
