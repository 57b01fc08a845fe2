package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/getmedsage/medsage/internal/intervention"
	"github.com/getmedsage/medsage/internal/knowledge"
	"github.com/getmedsage/medsage/internal/llm"
	"github.com/getmedsage/medsage/internal/logger"
	"github.com/getmedsage/medsage/internal/workflow"
	"github.com/getmedsage/medsage/pkg/models"
)

var (
	assessSample    bool
	assessJSON      bool
	assessVerbose   bool
	assessKB        string
	assessModel     string
	assessThreshold float64
)

var assessCmd = &cobra.Command{
	Use:   "assess [patient.json]",
	Short: "Run an AI assessment for a patient",
	Long: `Runs patient intake data through the staged assessment pipeline and
prints the resulting report.

The patient is read from a JSON file, or from a built-in sample when
--sample is set. With DATABASE_URL set the result is stored and routed
through the intervention gateway.

Requires GEMINI_API_KEY.

Examples:
  medsage assess ./patient.json
  medsage assess --sample
  medsage assess ./patient.json --json > result.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAssess,
}

func init() {
	assessCmd.Flags().BoolVar(&assessSample, "sample", false, "Assess the built-in sample patient")
	assessCmd.Flags().BoolVar(&assessJSON, "json", false, "Output the full workflow state as JSON")
	assessCmd.Flags().BoolVarP(&assessVerbose, "verbose", "v", false, "Show component logs")
	assessCmd.Flags().StringVar(&assessKB, "kb", "medical_knowledge_base.json", "Path to the disease knowledge base")
	assessCmd.Flags().StringVarP(&assessModel, "model", "m", "", "Gemini model override")
	assessCmd.Flags().Float64Var(&assessThreshold, "threshold", intervention.DefaultThreshold, "Quality score below which the run is flagged for review")
}

func runAssess(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	patient, err := loadPatient(args)
	if err != nil {
		return err
	}

	level := "warn"
	if assessVerbose {
		level = "debug"
	}
	appLog := logger.NewWithWriter(os.Stderr, "medsage", level)

	client, err := llm.NewClient(llm.Config{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Model:  assessModel,
	}, appLog)
	if err != nil {
		return err
	}

	kb := knowledge.Load(assessKB, appLog)
	orchestrator := workflow.New(client, kb, appLog)

	state, err := orchestrator.Initialize(patient)
	if err != nil {
		var vErr *workflow.ValidationError
		if errors.As(err, &vErr) {
			red := color.New(color.FgRed)
			for _, f := range vErr.Fields {
				_, _ = red.Fprintf(os.Stderr, "  %s: %s\n", f.Field, f.Message)
			}
			return fmt.Errorf("invalid patient input")
		}
		return err
	}

	fmt.Fprintf(os.Stderr, "Assessing %s (%d symptoms) with %s\n",
		patient.Name, len(patient.Symptoms), client.Model())

	final := orchestrator.Run(ctx, state, newProgressEmitter())

	if os.Getenv("DATABASE_URL") != "" {
		if err := saveAssessment(ctx, client, final, appLog); err != nil {
			return err
		}
	}

	if final.Status == models.StatusError {
		return fmt.Errorf("assessment failed: %s", final.Error)
	}

	if assessJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(final)
	}

	printAssessment(os.Stdout, final)
	return nil
}

// loadPatient reads the patient from the file argument, or returns the
// built-in sample when --sample is set.
func loadPatient(args []string) (models.Patient, error) {
	if assessSample {
		return samplePatient(), nil
	}
	if len(args) == 0 {
		return models.Patient{}, fmt.Errorf("provide a patient JSON file or --sample")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return models.Patient{}, fmt.Errorf("failed to read patient file: %w", err)
	}
	var patient models.Patient
	if err := json.Unmarshal(data, &patient); err != nil {
		return models.Patient{}, fmt.Errorf("failed to parse %s: %w", args[0], err)
	}
	return patient, nil
}

// samplePatient is a demo intake for trying the pipeline without a file.
func samplePatient() models.Patient {
	return models.Patient{
		Name:   "John Doe",
		Age:    35,
		Gender: "Male",
		Symptoms: []models.Symptom{
			{Name: "fever", Severity: models.SeveritySevere, DurationDays: 3, Description: "High fever with chills"},
			{Name: "headache", Severity: models.SeverityModerate, DurationDays: 3},
			{Name: "fatigue", Severity: models.SeverityModerate, DurationDays: 4},
		},
		MedicalHistory: []string{"hypertension"},
		Medications:    []string{"lisinopril"},
		Allergies:      []string{"penicillin"},
	}
}

// saveAssessment stores the run and routes it through the intervention
// gateway, printing any tickets that need human review.
func saveAssessment(ctx context.Context, client *llm.Client, state *models.WorkflowState, appLog *slog.Logger) error {
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	embedding, err := client.EmbedText(ctx, strings.Join(state.Patient.SymptomNames(), ", "))
	if err != nil {
		appLog.Warn("embedding failed, similarity search skipped", "error", err)
		embedding = nil
	}

	record, err := db.SaveAssessment(ctx, state, embedding)
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Saved assessment %s\n", record.ID)

	manager := intervention.NewManager(appLog)
	gateway := intervention.NewGateway(manager, db, assessThreshold, appLog)
	tickets := gateway.Review(ctx, record.ID.String(), state)

	if len(tickets) > 0 {
		yellow := color.New(color.FgYellow)
		for _, id := range tickets {
			ticket := manager.Get(id)
			_, _ = yellow.Fprintf(os.Stderr, "  Flagged for review: %s (%s)\n", id, ticket.Reason)
		}
	}
	return nil
}

// newProgressEmitter picks spinner output on a TTY and plain text otherwise.
func newProgressEmitter() workflow.Emitter {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return newSpinnerEmitter()
	}
	return &workflow.TextEmitter{W: os.Stderr}
}

// spinnerEmitter animates pipeline progress on a TTY.
type spinnerEmitter struct {
	s *spinner.Spinner
}

func newSpinnerEmitter() *spinnerEmitter {
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	return &spinnerEmitter{s: s}
}

func (e *spinnerEmitter) Emit(ev workflow.Event) {
	switch ev.Type {
	case "stage":
		if !e.s.Active() {
			e.s.Start()
		}
		e.s.Suffix = fmt.Sprintf(" [%d/%d] %s", ev.Step, ev.Total, ev.Message)
	case "error":
		e.s.Stop()
		_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "Error in %s: %s\n", ev.Stage, ev.Message)
	case "done":
		e.s.Stop()
	}
}

// printAssessment renders the final summary as a colored terminal report.
func printAssessment(w io.Writer, state *models.WorkflowState) {
	summary := state.FinalSummary
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	fmt.Fprintln(w)
	_, _ = bold.Fprintln(w, "MEDICAL ASSESSMENT")
	_, _ = dim.Fprintln(w, strings.Repeat("━", 50))

	if state.Validation != nil && state.Validation.Urgency.RequiresEmergency {
		_, _ = color.New(color.FgRed, color.Bold).Fprintln(w, "SEEK IMMEDIATE MEDICAL ATTENTION")
	}

	fmt.Fprintf(w, "Patient:  %s\n", summary.PatientName)
	fmt.Fprintf(w, "Date:     %s\n", summary.AssessmentDate.Format("2006-01-02"))
	fmt.Fprintf(w, "Symptoms: %s\n", strings.Join(summary.Symptoms, ", "))
	fmt.Fprintln(w)

	if len(summary.TopDiagnoses) > 0 {
		_, _ = bold.Fprintln(w, "TOP DIAGNOSES")
		for i, d := range summary.TopDiagnoses {
			fmt.Fprintf(w, "%d. %s\n", i+1, models.FormatDiagnosis(d))
		}
		fmt.Fprintln(w)
	}

	if len(summary.Treatments) > 0 {
		_, _ = bold.Fprintln(w, "TREATMENT PLAN")
		red := color.New(color.FgRed)
		for _, t := range summary.Treatments {
			fmt.Fprintf(w, "- %s\n", models.FormatTreatment(t))
			if t.Contraindicated {
				_, _ = red.Fprintf(w, "  CONTRAINDICATED: %s\n", t.ContraindicationNote)
			}
		}
		fmt.Fprintln(w)
	}

	if len(summary.DiagnosticTests) > 0 {
		_, _ = bold.Fprintln(w, "RECOMMENDED TESTS")
		for _, test := range summary.DiagnosticTests {
			fmt.Fprintf(w, "- %s\n", test)
		}
		fmt.Fprintln(w)
	}

	if len(summary.NextSteps) > 0 {
		_, _ = bold.Fprintln(w, "NEXT STEPS")
		for _, step := range summary.NextSteps {
			fmt.Fprintf(w, "- %s\n", step)
		}
		fmt.Fprintln(w)
	}

	if len(summary.SafetyWarnings) > 0 {
		yellow := color.New(color.FgYellow)
		_, _ = bold.Fprintln(w, "SAFETY WARNINGS")
		for _, warning := range summary.SafetyWarnings {
			_, _ = yellow.Fprintf(w, "! %s\n", warning)
		}
		fmt.Fprintln(w)
	}

	risk := models.RiskLevel(summary.QualityScore)
	riskColor := color.New(color.FgGreen)
	switch risk {
	case models.RiskModerate:
		riskColor = color.New(color.FgYellow)
	case models.RiskHigh:
		riskColor = color.New(color.FgRed)
	}
	fmt.Fprintf(w, "Quality: %s ", models.FormatConfidence(summary.QualityScore))
	_, _ = riskColor.Fprintf(w, "[%s RISK]\n", risk)
}
