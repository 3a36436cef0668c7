package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/calm-red-fox/siteops/internal/models"
)

var (
	projectDBPath string
	projectName   string
	projectClient string
	projectBudget float64
)

// projectCmd represents the project command group
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project management commands",
	Long: `Commands for managing SiteOps projects.

Projects are the root scope for work items, time sessions, expenses
and vehicle usage. These commands operate directly on the database file.

Examples:
  # List all projects
  sitectl project list

  # Create a new project
  sitectl project create --name "Villa Rossi" --client "Rossi srl"

  # Show a project and its work breakdown
  sitectl project show --name "Villa Rossi"`,
}

// projectListCmd lists all projects
var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	Long: `List all projects in the database.

Displays project ID, name, client, status, and creation date.

Example:
  sitectl project list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(projectDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		projects, err := store.Projects().List(ctx)
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}

		if len(projects) == 0 {
			fmt.Println("No projects found.")
			return nil
		}

		fmt.Printf("\n%-36s  %-24s  %-20s  %-8s  %s\n",
			"ID", "NAME", "CLIENT", "STATUS", "CREATED")
		fmt.Println(strings.Repeat("-", 108))

		for _, p := range projects {
			fmt.Printf("%-36s  %-24s  %-20s  %-8s  %s\n",
				p.ID,
				truncate(p.Name, 24),
				truncate(p.ClientName, 20),
				p.Status,
				p.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		fmt.Printf("\nTotal: %d project(s)\n", len(projects))

		return nil
	},
}

// projectCreateCmd creates a new project
var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new project",
	Long: `Create a new active project.

Example:
  sitectl project create --name "Villa Rossi" --client "Rossi srl" --budget 250000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if projectName == "" {
			return fmt.Errorf("--name is required")
		}

		store, err := openDatabase(projectDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()

		existing, err := store.Projects().GetByName(ctx, projectName)
		if err != nil {
			return fmt.Errorf("check project name: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("project '%s' already exists", projectName)
		}

		project := models.NewProject(strings.TrimSpace(projectName), strings.TrimSpace(projectClient))
		project.ID = uuid.New().String()
		project.BudgetEUR = projectBudget

		if err := store.Projects().Create(ctx, project); err != nil {
			return fmt.Errorf("create project: %w", err)
		}

		fmt.Printf("\nProject created successfully:\n")
		fmt.Printf("  ID:     %s\n", project.ID)
		fmt.Printf("  Name:   %s\n", project.Name)
		fmt.Printf("  Client: %s\n", project.ClientName)
		fmt.Printf("  Status: %s\n", project.Status)

		return nil
	},
}

// projectShowCmd shows a project and its work breakdown
var projectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a project and its work breakdown",
	Long: `Show project details and the hierarchical work-item tree.

Example:
  sitectl project show --name "Villa Rossi"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if projectName == "" {
			return fmt.Errorf("--name is required")
		}

		store, err := openDatabase(projectDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()

		project, err := store.Projects().GetByName(ctx, projectName)
		if err != nil {
			return fmt.Errorf("find project: %w", err)
		}
		if project == nil {
			return fmt.Errorf("project '%s' not found", projectName)
		}

		fmt.Printf("\nProject: %s\n", project.Name)
		fmt.Printf("  ID:      %s\n", project.ID)
		fmt.Printf("  Client:  %s\n", project.ClientName)
		fmt.Printf("  Status:  %s\n", project.Status)
		if project.BudgetEUR > 0 {
			fmt.Printf("  Budget:  %.2f EUR\n", project.BudgetEUR)
		}
		fmt.Printf("  Created: %s\n", project.CreatedAt.Format("2006-01-02 15:04"))

		items, err := store.WorkItems().ListByProject(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("list work items: %w", err)
		}

		if len(items) == 0 {
			fmt.Println("\nNo work items.")
			return nil
		}

		fmt.Printf("\nWork items:\n")
		for _, node := range models.BuildWorkItemTree(items) {
			printWorkItemNode(node, 1)
		}

		return nil
	},
}

func printWorkItemNode(node *models.WorkItemNode, depth int) {
	fmt.Printf("%s- %s [%s, %d%%]\n",
		strings.Repeat("  ", depth), node.Item.Name, node.Item.Status, node.Item.Progress)
	for _, child := range node.Children {
		printWorkItemNode(child, depth+1)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-2] + ".."
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectShowCmd)

	for _, cmd := range []*cobra.Command{projectListCmd, projectCreateCmd, projectShowCmd} {
		cmd.Flags().StringVar(&projectDBPath, "db", defaultDBPath, "path to SQLite database file")
	}

	projectCreateCmd.Flags().StringVar(&projectName, "name", "", "project name (required)")
	projectCreateCmd.Flags().StringVar(&projectClient, "client", "", "client name")
	projectCreateCmd.Flags().Float64Var(&projectBudget, "budget", 0, "project budget in EUR")
	projectCreateCmd.MarkFlagRequired("name")

	projectShowCmd.Flags().StringVar(&projectName, "name", "", "project name (required)")
	projectShowCmd.MarkFlagRequired("name")
}
