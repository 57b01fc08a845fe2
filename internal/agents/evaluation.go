package agents

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/getmedsage/medsage/internal/llm"
	"github.com/getmedsage/medsage/pkg/models"
)

const (
	defaultQualityScore = 0.75
	maxListedFindings   = 3
)

var qualityPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:%|out of 10|/10)`)

// EvaluationAgent reviews the full assessment for quality and runs the
// deterministic safety checks.
type EvaluationAgent struct {
	llm llm.Completer
	log *slog.Logger
}

// NewEvaluationAgent creates an EvaluationAgent using the given model client.
func NewEvaluationAgent(completer llm.Completer, log *slog.Logger) *EvaluationAgent {
	return &EvaluationAgent{llm: completer, log: log}
}

// EvaluateAssessment asks the model to grade the assessment, extracts a
// quality score with listed strengths and concerns, and attaches the safety
// report. An unparsable grade falls back to 0.75 rather than failing the run.
func (a *EvaluationAgent) EvaluateAssessment(ctx context.Context, state *models.WorkflowState) (*models.Evaluation, error) {
	a.log.Info("evaluating assessment quality")

	response, err := a.llm.Complete(ctx, buildEvaluationPrompt(state))
	if err != nil {
		return nil, fmt.Errorf("assessment evaluation: %w", err)
	}

	evaluation := &models.Evaluation{
		QualityScore:   parseQualityScore(response),
		Strengths:      extractFindings(response, "strength", "strong"),
		Concerns:       extractFindings(response, "concern", "caution"),
		FullEvaluation: response,
		Safety:         CheckSafety(state),
	}
	return evaluation, nil
}

func buildEvaluationPrompt(state *models.WorkflowState) string {
	topDiagnosis := "None"
	confidence := 0.0
	if len(state.Diagnoses) > 0 {
		topDiagnosis = state.Diagnoses[0].Disease
		confidence = state.Diagnoses[0].Confidence
	}

	var b strings.Builder
	b.WriteString("Evaluate this medical assessment:\n\n")
	fmt.Fprintf(&b, "Number of symptoms: %d\n", len(state.Patient.Symptoms))
	fmt.Fprintf(&b, "Number of diagnoses: %d\n", len(state.Diagnoses))
	fmt.Fprintf(&b, "Number of treatments: %d\n\n", len(state.Treatments))
	fmt.Fprintf(&b, "Top diagnosis: %s\n", topDiagnosis)
	fmt.Fprintf(&b, "Confidence: %s\n", models.FormatConfidence(confidence))

	b.WriteString(`
Assessment criteria:
1. Are diagnoses well-supported by symptoms?
2. Is the confidence level appropriate?
3. Are treatments appropriate for the diagnoses?
4. Are all safety considerations addressed?
5. Is the assessment complete and thorough?

Provide:
- Overall quality score (0.0-1.0)
- Strengths of the assessment
- Areas for improvement
- Any concerns or red flags
- Final recommendation
`)
	return b.String()
}

// parseQualityScore extracts the first score in the response, reading "8/10"
// and "8 out of 10" on a ten scale and "85%" on a hundred scale, both capped
// at 1.0. Without a parsable score the documented default of 0.75 applies.
func parseQualityScore(response string) float64 {
	m := qualityPattern.FindStringSubmatch(response)
	if m == nil {
		return defaultQualityScore
	}

	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return defaultQualityScore
	}

	switch {
	case strings.Contains(response, "out of 10") || strings.Contains(response, "/10"):
		return min(score/10, 1.0)
	case strings.Contains(response, "%"):
		return min(score/100, 1.0)
	}
	return defaultQualityScore
}

// extractFindings pulls up to three lines naming the primary keyword, gated
// on either keyword appearing anywhere in the response.
func extractFindings(response, primary, secondary string) []string {
	lower := strings.ToLower(response)
	if !strings.Contains(lower, primary) && !strings.Contains(lower, secondary) {
		return nil
	}

	var findings []string
	for _, line := range strings.Split(response, "\n") {
		if strings.Contains(strings.ToLower(line), primary) && len(line) > 10 {
			findings = append(findings, trimBullet(line))
		}
		if len(findings) == maxListedFindings {
			break
		}
	}
	return findings
}

// CheckSafety runs the deterministic integrity checks on a finished
// assessment: diagnoses must be matched by at least one treatment, and urgent
// symptom screens must surface emergency-care guidance somewhere in the
// treatments. Failures are warnings on the evaluation, never run errors.
func CheckSafety(state *models.WorkflowState) models.SafetyReport {
	var warnings []models.IntegrityWarning

	if len(state.Diagnoses) > 0 && len(state.Treatments) == 0 {
		warnings = append(warnings, models.IntegrityWarning{
			Check:  "treatment_coverage",
			Detail: fmt.Sprintf("%d diagnoses but no treatment recommendations", len(state.Diagnoses)),
		})
	}

	if state.Validation != nil && state.Validation.Urgency.RequiresEmergency {
		if !mentionsEmergencyCare(state.Treatments) {
			warnings = append(warnings, models.IntegrityWarning{
				Check:  "urgency_guidance",
				Detail: "urgent symptoms detected but no emergency-care guidance in treatments",
			})
		}
	}

	return models.SafetyReport{
		Complete: len(warnings) == 0,
		Warnings: warnings,
	}
}

func mentionsEmergencyCare(treatments []models.Treatment) bool {
	for _, t := range treatments {
		lower := strings.ToLower(t.Recommendation)
		if strings.Contains(lower, "emergency") || strings.Contains(lower, "immediate medical attention") {
			return true
		}
	}
	return false
}
