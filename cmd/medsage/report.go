package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/getmedsage/medsage/internal/report"
)

var reportOutput string

var reportCmd = &cobra.Command{
	Use:   "report <assessment-id>",
	Short: "Export a stored assessment as a PDF report",
	Long: `Renders the PDF report for a stored assessment.

Requires DATABASE_URL. Set MEDSAGE_FONT_PATH to point at a TTF file when
no DejaVuSans font is installed.

Examples:
  medsage report 7b7f5e9e-4d7a-4b9e-9f3a-2f8c1d6e0a11
  medsage report 7b7f5e9e-4d7a-4b9e-9f3a-2f8c1d6e0a11 -o patient.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Output file (default assessment-<id>.pdf)")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid assessment ID: %s", args[0])
	}

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	assessment, err := db.GetAssessment(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load assessment: %w", err)
	}
	if assessment == nil {
		return fmt.Errorf("assessment %s not found", id)
	}

	g := &report.Generator{FontPath: os.Getenv("MEDSAGE_FONT_PATH")}
	pdf, err := g.Generate(assessment.State)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	output := reportOutput
	if output == "" {
		output = fmt.Sprintf("assessment-%s.pdf", id)
	}
	if err := os.WriteFile(output, pdf, 0644); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Report written to %s (%d bytes)\n", output, len(pdf))
	return nil
}
