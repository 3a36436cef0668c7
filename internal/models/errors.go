package models

import "errors"

// Domain validation errors. These are expected business-rule rejections,
// not system faults; handlers translate them into 4xx responses and the
// attempted mutation leaves no trace.
var (
	// ErrAlreadyActive is returned when starting a time session while the
	// user already has one open.
	ErrAlreadyActive = errors.New("user already has an active time session")

	// ErrMissingQuantity is returned when an allocation carries neither
	// minutes nor a percentage.
	ErrMissingQuantity = errors.New("allocation requires minutes or percent")

	// ErrProjectMismatch is returned when a referenced work item belongs to
	// a different project than its owning record.
	ErrProjectMismatch = errors.New("work item belongs to a different project")

	// ErrHasChildren blocks deletion of a work item that still has children.
	ErrHasChildren = errors.New("work item has child items")

	// ErrInvalidStatus is returned for a status value outside the enum.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrVehicleBusy is returned when checking out a vehicle that already
	// has an open session.
	ErrVehicleBusy = errors.New("vehicle already has an active session")

	// ErrUserBusy is returned when a user with an open vehicle session
	// tries to check out another vehicle.
	ErrUserBusy = errors.New("user already has an active vehicle session")

	// ErrOdometerRegression is returned when a checkin reports fewer
	// kilometers than the checkout recorded.
	ErrOdometerRegression = errors.New("end odometer below start odometer")

	// ErrForbidden is returned when the requesting user lacks permission
	// for the operation.
	ErrForbidden = errors.New("operation not permitted")

	// ErrAlreadyClosed marks an idempotent close of a session that is
	// already closed. Informational, not a failure.
	ErrAlreadyClosed = errors.New("session already closed")

	// ErrNotFound is returned by guarded storage operations when the
	// target row does not exist.
	ErrNotFound = errors.New("not found")
)
