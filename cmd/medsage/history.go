package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/getmedsage/medsage/internal/database"
	"github.com/getmedsage/medsage/pkg/models"
)

var (
	historyPatient string
	historyLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored assessments",
	Long: `Lists assessments stored in Postgres, newest first.

Requires DATABASE_URL.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyPatient, "patient", "p", "", "Filter by exact patient name")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of assessments to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	assessments, err := db.ListAssessments(ctx, database.ListAssessmentsParams{
		Patient: historyPatient,
		Limit:   historyLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to list assessments: %w", err)
	}

	if len(assessments) == 0 {
		fmt.Println("No assessments found.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATIENT\tSTATUS\tQUALITY\tURGENCY\tCREATED")
	for _, a := range assessments {
		quality := "-"
		if a.QualityScore != nil {
			quality = models.FormatConfidence(*a.QualityScore)
		}
		urgency := "-"
		if a.Urgency != nil {
			urgency = *a.Urgency
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.PatientName, a.Status, quality, urgency,
			a.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
