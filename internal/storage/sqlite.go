package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	// Pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/calm-red-fox/siteops/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	path string
	db   *sql.DB

	users        *sqliteUserRepo
	projects     *sqliteProjectRepo
	workItems    *sqliteWorkItemRepo
	timeSessions *sqliteTimeSessionRepo
	costs        *sqliteCostRepo
	vehicles     *sqliteVehicleRepo
	photos       *sqliteWorkPhotoRepo
	docs         *sqliteDocsRepo
}

// NewSQLiteStorage creates a new SQLite storage.
func NewSQLiteStorage(path string) *SQLiteStorage {
	return &SQLiteStorage{path: path}
}

// Open initializes the database connection.
func (s *SQLiteStorage) Open() error {
	ctx := context.Background()

	db, err := sql.Open("sqlite", "file:"+s.path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	// Single connection: SQLite is single-writer, and one connection makes
	// every transaction a full serialization point for the guarded
	// check-and-mutate operations.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	s.db = db

	// Initialize repositories
	s.users = &sqliteUserRepo{db: db}
	s.projects = &sqliteProjectRepo{db: db}
	s.workItems = &sqliteWorkItemRepo{db: db}
	s.timeSessions = &sqliteTimeSessionRepo{db: db}
	s.costs = &sqliteCostRepo{db: db}
	s.vehicles = &sqliteVehicleRepo{db: db}
	s.photos = &sqliteWorkPhotoRepo{db: db}
	s.docs = &sqliteDocsRepo{db: db}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database connection for health checks.
func (s *SQLiteStorage) DB() *sql.DB {
	return s.db
}

// Migrate runs database migrations.
func (s *SQLiteStorage) Migrate() error {
	return runMigrations(s.db)
}

// EnsureAdminUser creates a default admin if no users exist. The generated
// password is printed once to the log; it should be changed right after
// first login.
func (s *SQLiteStorage) EnsureAdminUser() error {
	ctx := context.Background()

	count, err := s.Users().Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	password, err := generatePassword()
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := models.NewUser("admin", "admin@localhost", models.RoleAdmin)
	admin.ID = uuid.New().String()
	admin.PasswordHash = string(hash)

	if err := s.Users().Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	log.Printf("created bootstrap admin user %q with password %q, change it after first login", admin.Username, password)
	return nil
}

func generatePassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Repository accessors

func (s *SQLiteStorage) Users() UserRepository                { return s.users }
func (s *SQLiteStorage) Projects() ProjectRepository          { return s.projects }
func (s *SQLiteStorage) WorkItems() WorkItemRepository        { return s.workItems }
func (s *SQLiteStorage) TimeSessions() TimeSessionRepository  { return s.timeSessions }
func (s *SQLiteStorage) Costs() CostRepository                { return s.costs }
func (s *SQLiteStorage) Vehicles() VehicleRepository          { return s.vehicles }
func (s *SQLiteStorage) Photos() WorkPhotoRepository          { return s.photos }
func (s *SQLiteStorage) Docs() DocsRepository                 { return s.docs }
