// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"time"

	"github.com/calm-red-fox/siteops/internal/models"
)

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error
	// EnsureAdminUser creates a default admin if no users exist.
	EnsureAdminUser() error

	// Repository accessors
	Users() UserRepository
	Projects() ProjectRepository
	WorkItems() WorkItemRepository
	TimeSessions() TimeSessionRepository
	Costs() CostRepository
	Vehicles() VehicleRepository
	Photos() WorkPhotoRepository
	Docs() DocsRepository
}

// UserRepository defines operations for user management.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// ProjectRepository defines operations for project management.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	GetByName(ctx context.Context, name string) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Project, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Project, error)
	Count(ctx context.Context) (int64, error)
}

// WorkItemRepository defines operations for a project's work breakdown.
type WorkItemRepository interface {
	Create(ctx context.Context, item *models.WorkItem) error
	GetByID(ctx context.Context, id string) (*models.WorkItem, error)
	Update(ctx context.Context, item *models.WorkItem) error
	// ListByProject returns the project's items ordered by (sort_order, id),
	// the order the tree builder expects.
	ListByProject(ctx context.Context, projectID string) ([]*models.WorkItem, error)
	// Delete removes a childless item. Returns models.ErrHasChildren while
	// any item still points at it as parent.
	Delete(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status models.WorkItemStatus) error
	SetProgress(ctx context.Context, id string, progress int) error
}

// TimeSessionRepository defines operations for worker time tracking.
type TimeSessionRepository interface {
	// Start opens a session. Returns models.ErrAlreadyActive if the user
	// already has an open session; the check and insert run in one
	// transaction.
	Start(ctx context.Context, session *models.TimeSession) error
	GetByID(ctx context.Context, id string) (*models.TimeSession, error)
	ListByUser(ctx context.Context, userID string) ([]*models.TimeSession, error)
	GetActiveForUser(ctx context.Context, userID string) (*models.TimeSession, error)
	ListCompletedSince(ctx context.Context, userID string, since time.Time) ([]*models.TimeSession, error)
	// Stop closes a session. Returns models.ErrAlreadyClosed when the
	// session was closed before; closing is terminal.
	Stop(ctx context.Context, id string, endTime time.Time) error

	// AddAllocation validates, in one transaction, that the work item
	// belongs to the session's project (models.ErrProjectMismatch) and that
	// at least one quantity is present (models.ErrMissingQuantity).
	AddAllocation(ctx context.Context, alloc *models.TimeSessionAllocation) error
	GetAllocation(ctx context.Context, id string) (*models.TimeSessionAllocation, error)
	ListAllocations(ctx context.Context, sessionID string) ([]*models.TimeSessionAllocation, error)
	DeleteAllocation(ctx context.Context, id string) error
}

// CostRepository defines operations for expense documents.
type CostRepository interface {
	// Create validates that an attached work item belongs to the chosen
	// project (models.ErrProjectMismatch).
	Create(ctx context.Context, doc *models.CostDocument) error
	GetByID(ctx context.Context, id string) (*models.CostDocument, error)
	// List returns documents newest first, optionally filtered by status.
	List(ctx context.Context, status models.CostStatus) ([]*models.CostDocument, error)
	// Transition moves a document to the target status, stamping the
	// approver. Re-entering the current status is a silent no-op.
	Transition(ctx context.Context, id string, to models.CostStatus, approverID string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// CheckinParams carries the readings recorded when a vehicle comes back.
type CheckinParams struct {
	EndTime       time.Time
	EndOdometerKM int
	EndFuelPct    int
	NotesIn       string
	DamagesReport string
	PhotosURLs    string
}

// VehicleRepository defines operations for the fleet.
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	GetByID(ctx context.Context, id string) (*models.Vehicle, error)
	GetByPlate(ctx context.Context, plate string) (*models.Vehicle, error)
	Update(ctx context.Context, vehicle *models.Vehicle) error
	List(ctx context.Context) ([]*models.Vehicle, error)

	// Checkout opens a session, sets the vehicle to in_use and mirrors the
	// start readings onto it. Returns models.ErrVehicleBusy or
	// models.ErrUserBusy; guard and insert run in one transaction.
	Checkout(ctx context.Context, session *models.VehicleSession) error
	// Checkin closes a session, mirrors the end readings and returns the
	// vehicle to available. Returns models.ErrAlreadyClosed or
	// models.ErrOdometerRegression, leaving the session open in the latter
	// case.
	Checkin(ctx context.Context, sessionID string, params CheckinParams) error
	GetSession(ctx context.Context, id string) (*models.VehicleSession, error)
	GetActiveSessionForVehicle(ctx context.Context, vehicleID string) (*models.VehicleSession, error)
	GetActiveSessionForUser(ctx context.Context, userID string) (*models.VehicleSession, error)
	ListSessionsByVehicle(ctx context.Context, vehicleID string) ([]*models.VehicleSession, error)
}

// WorkPhotoRepository defines operations for site photos.
type WorkPhotoRepository interface {
	Create(ctx context.Context, photo *models.WorkPhoto) error
	ListByProject(ctx context.Context, projectID string) ([]*models.WorkPhoto, error)
	Delete(ctx context.Context, id string) error
}

// DocsRepository defines operations for per-user document storage and
// broadcast announcements.
type DocsRepository interface {
	CreateFolder(ctx context.Context, folder *models.UserFolder) error
	GetFolder(ctx context.Context, id string) (*models.UserFolder, error)
	ListRootFolders(ctx context.Context, ownerID string) ([]*models.UserFolder, error)
	ListChildFolders(ctx context.Context, folderID string) ([]*models.UserFolder, error)

	CreateFile(ctx context.Context, file *models.UserFile) error
	GetFile(ctx context.Context, id string) (*models.UserFile, error)
	ListFilesByFolder(ctx context.Context, folderID string) ([]*models.UserFile, error)
	// MarkRead stamps read_at on first view; later calls change nothing.
	MarkRead(ctx context.Context, id string, at time.Time) error
	// Acknowledge stamps ack_at once, only for files that require it; any
	// other call is a silent no-op.
	Acknowledge(ctx context.Context, id string, at time.Time) error

	CreateBroadcast(ctx context.Context, doc *models.BroadcastDoc) error
	ListBroadcasts(ctx context.Context) ([]*models.BroadcastDoc, error)
}
