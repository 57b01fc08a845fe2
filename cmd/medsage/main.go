// Command medsage runs AI-assisted medical assessments from the terminal,
// browses stored history and exports PDF reports.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmedsage/medsage/internal/database"
)

var rootCmd = &cobra.Command{
	Use:   "medsage",
	Short: "AI-assisted medical assessments",
	Long: `MedSage runs patient intake data through a staged AI pipeline:
knowledge retrieval, diagnosis, validation, treatment planning and a
quality evaluation that can flag the run for human review.

Assessments are stored in Postgres when DATABASE_URL is set.`,
}

func main() {
	if rootCmd.Execute() != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
}

// openDB connects to the Postgres store named by DATABASE_URL, applying
// pending migrations first.
func openDB(ctx context.Context) (*database.DB, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if err := database.Migrate(url); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return database.New(ctx, url)
}
