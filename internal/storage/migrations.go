package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// migrations holds all database migrations in order.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up: `
			-- Users table
			CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				username TEXT UNIQUE NOT NULL,
				email TEXT UNIQUE NOT NULL,
				password_hash TEXT NOT NULL,
				first_name TEXT,
				last_name TEXT,
				role TEXT NOT NULL DEFAULT 'worker',
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);

			-- Projects table
			CREATE TABLE IF NOT EXISTS projects (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				client_name TEXT,
				start_date DATETIME,
				end_date DATETIME,
				budget_eur REAL NOT NULL DEFAULT 0,
				cover_url TEXT,
				description TEXT,
				status TEXT NOT NULL DEFAULT 'active',
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);

			-- Work items: self-referential tree scoped to a project
			CREATE TABLE IF NOT EXISTS work_items (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL,
				name TEXT NOT NULL,
				parent_id TEXT,
				weight REAL NOT NULL DEFAULT 1,
				progress INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL DEFAULT 'open',
				sort_order INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE,
				FOREIGN KEY (parent_id) REFERENCES work_items(id) ON DELETE SET NULL
			);
			CREATE INDEX IF NOT EXISTS idx_work_items_project ON work_items(project_id);
			CREATE INDEX IF NOT EXISTS idx_work_items_parent ON work_items(parent_id);

			-- Time sessions
			CREATE TABLE IF NOT EXISTS time_sessions (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				start_time DATETIME NOT NULL,
				end_time DATETIME,
				hourly_rate_eur_snapshot REAL NOT NULL DEFAULT 0,
				note TEXT,
				completed INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			);
			CREATE INDEX IF NOT EXISTS idx_time_sessions_user ON time_sessions(user_id);
			CREATE INDEX IF NOT EXISTS idx_time_sessions_project ON time_sessions(project_id);

			-- Allocations splitting a session across work items
			CREATE TABLE IF NOT EXISTS time_session_allocations (
				id TEXT PRIMARY KEY,
				time_session_id TEXT NOT NULL,
				work_item_id TEXT NOT NULL,
				minutes_allocated INTEGER,
				percent_allocated REAL,
				note TEXT,
				FOREIGN KEY (time_session_id) REFERENCES time_sessions(id) ON DELETE CASCADE,
				FOREIGN KEY (work_item_id) REFERENCES work_items(id) ON DELETE CASCADE
			);
			CREATE INDEX IF NOT EXISTS idx_allocations_session ON time_session_allocations(time_session_id);
			CREATE INDEX IF NOT EXISTS idx_allocations_work_item ON time_session_allocations(work_item_id);

			-- Work photos
			CREATE TABLE IF NOT EXISTS work_photos (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				time_session_id TEXT,
				work_item_id TEXT,
				url TEXT NOT NULL,
				description TEXT,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
				FOREIGN KEY (time_session_id) REFERENCES time_sessions(id) ON DELETE SET NULL,
				FOREIGN KEY (work_item_id) REFERENCES work_items(id) ON DELETE SET NULL
			);

			-- Cost documents
			CREATE TABLE IF NOT EXISTS cost_documents (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				work_item_id TEXT,
				doc_type TEXT NOT NULL DEFAULT 'invoice',
				amount_eur REAL NOT NULL,
				with_vat INTEGER NOT NULL DEFAULT 1,
				status TEXT NOT NULL DEFAULT 'pending',
				doc_url TEXT,
				note TEXT,
				approved_by TEXT,
				approved_at DATETIME,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
				FOREIGN KEY (work_item_id) REFERENCES work_items(id) ON DELETE SET NULL,
				FOREIGN KEY (approved_by) REFERENCES users(id) ON DELETE SET NULL
			);
			CREATE INDEX IF NOT EXISTS idx_cost_documents_project ON cost_documents(project_id);
			CREATE INDEX IF NOT EXISTS idx_cost_documents_status ON cost_documents(status);

			-- Fleet
			CREATE TABLE IF NOT EXISTS vehicles (
				id TEXT PRIMARY KEY,
				plate TEXT UNIQUE NOT NULL,
				name TEXT NOT NULL,
				vehicle_type TEXT NOT NULL DEFAULT 'van',
				status TEXT NOT NULL DEFAULT 'available',
				odometer_km INTEGER NOT NULL DEFAULT 0,
				fuel_level_percent INTEGER NOT NULL DEFAULT 100,
				photo_url TEXT,
				notes TEXT,
				created_at DATETIME NOT NULL
			);

			CREATE TABLE IF NOT EXISTS vehicle_sessions (
				id TEXT PRIMARY KEY,
				vehicle_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				project_id TEXT,
				start_time DATETIME NOT NULL,
				end_time DATETIME,
				start_odometer_km INTEGER NOT NULL,
				end_odometer_km INTEGER,
				start_fuel_percent INTEGER NOT NULL,
				end_fuel_percent INTEGER,
				notes_out TEXT,
				notes_in TEXT,
				damages_report TEXT,
				photos_urls TEXT,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (vehicle_id) REFERENCES vehicles(id) ON DELETE CASCADE,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
				FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE SET NULL
			);
			CREATE INDEX IF NOT EXISTS idx_vehicle_sessions_vehicle ON vehicle_sessions(vehicle_id);
			CREATE INDEX IF NOT EXISTS idx_vehicle_sessions_user ON vehicle_sessions(user_id);

			-- Per-user document storage
			CREATE TABLE IF NOT EXISTS user_folders (
				id TEXT PRIMARY KEY,
				owner_id TEXT NOT NULL,
				name TEXT NOT NULL,
				parent_id TEXT,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE,
				FOREIGN KEY (parent_id) REFERENCES user_folders(id) ON DELETE CASCADE,
				UNIQUE (owner_id, parent_id, name)
			);

			CREATE TABLE IF NOT EXISTS user_files (
				id TEXT PRIMARY KEY,
				owner_id TEXT NOT NULL,
				folder_id TEXT NOT NULL,
				title TEXT NOT NULL,
				file_url TEXT NOT NULL,
				category TEXT NOT NULL DEFAULT 'other',
				requires_ack INTEGER NOT NULL DEFAULT 0,
				read_at DATETIME,
				ack_at DATETIME,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE,
				FOREIGN KEY (folder_id) REFERENCES user_folders(id) ON DELETE CASCADE
			);

			-- Broadcast announcements
			CREATE TABLE IF NOT EXISTS broadcast_docs (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				body TEXT,
				file_url TEXT,
				created_by TEXT,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (created_by) REFERENCES users(id) ON DELETE SET NULL
			);
		`,
	},
}

// runMigrations applies all pending migrations.
func runMigrations(db *sql.DB) error {
	// Create migrations table if not exists
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	// Apply pending migrations
	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		// Run migration in transaction
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction for migration %d: %w", m.Version, err)
		}

		_, err = tx.Exec(m.Up)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d (%s): %w", m.Version, m.Name, err)
		}

		_, err = tx.Exec(
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now(),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
