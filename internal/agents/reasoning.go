package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getmedsage/medsage/internal/llm"
	"github.com/getmedsage/medsage/pkg/models"
)

// urgentSymptomTerms trigger the urgent classification when found inside a
// reported symptom name.
var urgentSymptomTerms = []string{
	"severe chest pain",
	"shortness of breath",
	"severe headache",
	"unconsciousness",
	"severe bleeding",
}

// ReasoningAgent reviews the proposed diagnoses against the symptoms and
// screens for symptoms that need immediate care.
type ReasoningAgent struct {
	llm llm.Completer
	log *slog.Logger
}

// NewReasoningAgent creates a ReasoningAgent using the given model client.
func NewReasoningAgent(completer llm.Completer, log *slog.Logger) *ReasoningAgent {
	return &ReasoningAgent{llm: completer, log: log}
}

// ValidateDiagnoses asks the model to review the top diagnoses and attaches
// the deterministic urgency screen. An empty diagnosis list short-circuits
// without a model call and reports no_diagnoses.
func (a *ReasoningAgent) ValidateDiagnoses(ctx context.Context, diagnoses []models.Diagnosis, symptoms []models.Symptom) (*models.Validation, error) {
	a.log.Info("validating diagnoses", "count", len(diagnoses))

	urgency := AssessUrgency(symptoms)

	if len(diagnoses) == 0 {
		return &models.Validation{
			Status:    models.ValidationNoDiagnoses,
			Reasoning: "No diagnoses to validate",
			Diagnoses: []models.Diagnosis{},
			Urgency:   urgency,
		}, nil
	}

	response, err := a.llm.Complete(ctx, buildValidationPrompt(diagnoses, symptoms))
	if err != nil {
		return nil, fmt.Errorf("diagnosis validation: %w", err)
	}

	return &models.Validation{
		Status:    models.ValidationValidated,
		Reasoning: response,
		Diagnoses: diagnoses,
		Urgency:   urgency,
	}, nil
}

func buildValidationPrompt(diagnoses []models.Diagnosis, symptoms []models.Symptom) string {
	names := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		names = append(names, s.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Validate these diagnoses:\n\n")
	fmt.Fprintf(&b, "Symptoms: %s\n\n", strings.Join(names, ", "))

	b.WriteString("Proposed Diagnoses:\n")
	top := diagnoses
	if len(top) > 3 {
		top = top[:3]
	}
	for _, d := range top {
		fmt.Fprintf(&b, "- %s (confidence: %s)\n", d.Disease, models.FormatConfidence(d.Confidence))
	}

	b.WriteString(`
For each diagnosis, provide:
1. Is it valid for these symptoms?
2. How well do the symptoms match?
3. What's the confidence level?
4. Are there any contradictions?
5. What tests would confirm this?

Provide clear, logical reasoning for each assessment.
`)
	return b.String()
}

// AssessUrgency classifies the symptoms as normal or urgent by scanning each
// symptom name for the fixed urgent terms. Purely deterministic, never a
// model call.
func AssessUrgency(symptoms []models.Symptom) models.UrgencyAssessment {
	assessment := models.UrgencyAssessment{Level: models.UrgencyNormal}

	for _, symptom := range symptoms {
		name := strings.ToLower(symptom.Name)
		for _, term := range urgentSymptomTerms {
			if strings.Contains(name, term) {
				assessment.Level = models.UrgencyUrgent
				assessment.UrgentSymptoms = append(assessment.UrgentSymptoms, symptom.Name)
				break
			}
		}
	}

	assessment.RequiresEmergency = assessment.Level == models.UrgencyUrgent
	return assessment
}
