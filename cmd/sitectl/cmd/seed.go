package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/calm-red-fox/siteops/internal/models"
	"github.com/calm-red-fox/siteops/internal/storage"
)

var seedDBPath string

// seedCmd loads a small demo data set into the database.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a demo data set",
	Long: `Create the database if needed and load a small demo data set:
a project with a work breakdown, a fleet vehicle, a broadcast
announcement and a welcome document for the admin user.

The command is idempotent: running it against a database that already
contains the demo project changes nothing.

Example:
  sitectl seed --db data/siteops.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(filepath.Dir(seedDBPath), 0750); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}

		store := storage.NewSQLiteStorage(seedDBPath)
		if err := store.Open(); err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer store.Close()

		if err := store.Migrate(); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		if err := store.EnsureAdminUser(); err != nil {
			return fmt.Errorf("ensure admin user: %w", err)
		}

		ctx := context.Background()

		existing, err := store.Projects().GetByName(ctx, seedProjectName)
		if err != nil {
			return fmt.Errorf("check demo project: %w", err)
		}
		if existing != nil {
			fmt.Println("Demo data already present, nothing to do.")
			return nil
		}

		admin, err := store.Users().GetByUsername(ctx, "admin")
		if err != nil {
			return fmt.Errorf("find admin user: %w", err)
		}
		if admin == nil {
			return fmt.Errorf("admin user not found")
		}

		if err := seedDemoData(ctx, store, admin); err != nil {
			return err
		}

		fmt.Printf("Demo data loaded into %s.\n", seedDBPath)
		return nil
	},
}

const seedProjectName = "Villa Rossi"

func seedDemoData(ctx context.Context, store storage.Storage, admin *models.User) error {
	project := models.NewProject(seedProjectName, "Rossi Costruzioni srl")
	project.ID = uuid.New().String()
	project.BudgetEUR = 250000
	project.Description = "Renovation of the Villa Rossi property"
	if err := store.Projects().Create(ctx, project); err != nil {
		return fmt.Errorf("create demo project: %w", err)
	}

	// Two-level work breakdown
	groundwork := models.NewWorkItem(project.ID, "Groundwork")
	groundwork.ID = uuid.New().String()
	groundwork.Weight = 2
	if err := store.WorkItems().Create(ctx, groundwork); err != nil {
		return fmt.Errorf("create work item: %w", err)
	}

	excavation := models.NewWorkItem(project.ID, "Excavation")
	excavation.ID = uuid.New().String()
	excavation.ParentID = &groundwork.ID
	if err := store.WorkItems().Create(ctx, excavation); err != nil {
		return fmt.Errorf("create work item: %w", err)
	}

	foundations := models.NewWorkItem(project.ID, "Foundations")
	foundations.ID = uuid.New().String()
	foundations.ParentID = &groundwork.ID
	foundations.SortOrder = 1
	if err := store.WorkItems().Create(ctx, foundations); err != nil {
		return fmt.Errorf("create work item: %w", err)
	}

	electrical := models.NewWorkItem(project.ID, "Electrical systems")
	electrical.ID = uuid.New().String()
	electrical.SortOrder = 1
	if err := store.WorkItems().Create(ctx, electrical); err != nil {
		return fmt.Errorf("create work item: %w", err)
	}

	vehicle := models.NewVehicle("AB123CD", "Site van", models.VehicleVan)
	vehicle.ID = uuid.New().String()
	vehicle.OdometerKM = 42000
	if err := store.Vehicles().Create(ctx, vehicle); err != nil {
		return fmt.Errorf("create demo vehicle: %w", err)
	}

	broadcast := &models.BroadcastDoc{
		ID:        uuid.New().String(),
		Title:     "Welcome to SiteOps",
		Body:      "Track your hours, expenses and vehicles from the app.",
		CreatedBy: &admin.ID,
		CreatedAt: time.Now(),
	}
	if err := store.Docs().CreateBroadcast(ctx, broadcast); err != nil {
		return fmt.Errorf("create broadcast: %w", err)
	}

	// Personal document tree for the admin user
	folder := &models.UserFolder{
		ID:        uuid.New().String(),
		OwnerID:   admin.ID,
		Name:      "Contracts",
		CreatedAt: time.Now(),
	}
	if err := store.Docs().CreateFolder(ctx, folder); err != nil {
		return fmt.Errorf("create folder: %w", err)
	}

	file := &models.UserFile{
		ID:          uuid.New().String(),
		OwnerID:     admin.ID,
		FolderID:    folder.ID,
		Title:       "Safety policy",
		FileURL:     "https://example.com/docs/safety-policy.pdf",
		Category:    models.FileCircular,
		RequiresAck: true,
		CreatedAt:   time.Now(),
	}
	if err := store.Docs().CreateFile(ctx, file); err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&seedDBPath, "db", defaultDBPath, "path to SQLite database file")
}
