// Package cmd contains the CLI commands for sitectl.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calm-red-fox/siteops/internal/storage"
)

// defaultDBPath is the default database path, can be overridden via SITEOPS_DB_PATH env var
var defaultDBPath = "data/siteops.db"

func init() {
	if envPath := os.Getenv("SITEOPS_DB_PATH"); envPath != "" {
		defaultDBPath = envPath
	}
}

var (
	// Used for flags
	verbose bool
	output  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sitectl",
	Short: "SiteOps - construction site administration tool",
	Long: `sitectl manages a SiteOps installation from the command line.

The commands operate directly on the SQLite database file and are
intended for system administrators working outside the REST API.

Examples:
  # List all users
  sitectl user list

  # Create a staff user
  sitectl user create --username anna --email anna@example.com --role staff

  # List all projects
  sitectl project list

  # Load a demo data set into an empty database
  sitectl seed --db data/siteops.db`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
}

// GetOutput returns the output format.
func GetOutput() string {
	return output
}

// PrintVerbose prints a message only if verbose mode is enabled.
func PrintVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}

// openDatabase opens the SQLite database.
func openDatabase(path string) (*storage.SQLiteStorage, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("database file not found: %s", path)
	}

	store := storage.NewSQLiteStorage(path)
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return store, nil
}
