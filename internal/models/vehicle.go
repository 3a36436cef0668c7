package models

import (
	"strings"
	"time"
)

// VehicleType classifies a fleet vehicle.
type VehicleType string

const (
	VehicleVan    VehicleType = "van"
	VehicleTruck  VehicleType = "truck"
	VehicleCar    VehicleType = "car"
	VehiclePickup VehicleType = "pickup"
	VehicleOther  VehicleType = "other"
)

// ValidVehicleType reports whether t is one of the enumerated types.
func ValidVehicleType(t VehicleType) bool {
	switch t {
	case VehicleVan, VehicleTruck, VehicleCar, VehiclePickup, VehicleOther:
		return true
	}
	return false
}

// VehicleStatus represents availability of a fleet vehicle.
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleInUse       VehicleStatus = "in_use"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleUnavailable VehicleStatus = "unavailable"
)

// ValidVehicleStatus reports whether s is one of the enumerated states.
func ValidVehicleStatus(s VehicleStatus) bool {
	switch s {
	case VehicleAvailable, VehicleInUse, VehicleMaintenance, VehicleUnavailable:
		return true
	}
	return false
}

// Vehicle is a fleet vehicle. OdometerKM and FuelLevelPercent mirror the
// readings of the latest session boundary.
type Vehicle struct {
	ID               string        `json:"id"`
	Plate            string        `json:"plate"`
	Name             string        `json:"name"`
	VehicleType      VehicleType   `json:"vehicle_type"`
	Status           VehicleStatus `json:"status"`
	OdometerKM       int           `json:"odometer_km"`
	FuelLevelPercent int           `json:"fuel_level_percent"`
	PhotoURL         string        `json:"photo_url,omitempty"`
	Notes            string        `json:"notes,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// NewVehicle creates an available vehicle with a full tank reading.
func NewVehicle(plate, name string, vt VehicleType) *Vehicle {
	return &Vehicle{
		Plate:            plate,
		Name:             name,
		VehicleType:      vt,
		Status:           VehicleAvailable,
		FuelLevelPercent: 100,
		CreatedAt:        time.Now(),
	}
}

// VehicleSession records one checkout/checkin cycle of a vehicle.
type VehicleSession struct {
	ID              string     `json:"id"`
	VehicleID       string     `json:"vehicle_id"`
	UserID          string     `json:"user_id"`
	ProjectID       *string    `json:"project_id,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	StartOdometerKM int        `json:"start_odometer_km"`
	EndOdometerKM   *int       `json:"end_odometer_km,omitempty"`
	StartFuelPct    int        `json:"start_fuel_percent"`
	EndFuelPct      *int       `json:"end_fuel_percent,omitempty"`
	NotesOut        string     `json:"notes_out,omitempty"`
	NotesIn         string     `json:"notes_in,omitempty"`
	DamagesReport   string     `json:"damages_report,omitempty"`
	PhotosURLs      string     `json:"photos_urls,omitempty"` // one URL per line
	CreatedAt       time.Time  `json:"created_at"`
}

// IsActive reports whether the vehicle is still out.
func (s *VehicleSession) IsActive() bool {
	return s.EndTime == nil
}

// PhotoURLList splits the newline-delimited photo URLs, dropping blanks.
func (s *VehicleSession) PhotoURLList() []string {
	var urls []string
	for _, line := range strings.Split(s.PhotosURLs, "\n") {
		if u := strings.TrimSpace(line); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
