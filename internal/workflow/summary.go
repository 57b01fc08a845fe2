package workflow

import (
	"strings"
	"time"

	"github.com/getmedsage/medsage/internal/knowledge"
	"github.com/getmedsage/medsage/pkg/models"
)

// Summarize condenses a finished state into the patient-facing summary: the
// top three diagnoses, diagnostic tests for the two most likely diseases,
// a next-steps checklist and the safety warnings drawn from the patient
// record. Deterministic apart from the generation timestamp; calling it again
// on the same state yields the same content.
func Summarize(state *models.WorkflowState, kb *knowledge.Base) *models.Summary {
	return &models.Summary{
		PatientName:     state.Patient.Name,
		AssessmentDate:  time.Now().UTC(),
		Symptoms:        state.Patient.SymptomNames(),
		TopDiagnoses:    state.TopDiagnoses(3),
		Treatments:      state.Treatments,
		DiagnosticTests: diagnosticTests(state.Diagnoses, kb),
		NextSteps:       nextSteps(state.Diagnoses),
		SafetyWarnings:  safetyWarnings(state),
		QualityScore:    state.QualityScore(),
	}
}

// diagnosticTests resolves recommended tests for the top two diagnoses from
// the knowledge base, falling back to a generic entry for diseases the base
// does not know. Duplicate test names are listed once.
func diagnosticTests(diagnoses []models.Diagnosis, kb *knowledge.Base) []string {
	top := diagnoses
	if len(top) > 2 {
		top = top[:2]
	}

	var tests []string
	seen := make(map[string]bool)
	for _, d := range top {
		var named []string
		if kb != nil {
			named = kb.DiagnosticTests(d.Disease)
		}
		if len(named) == 0 {
			named = []string{"Test for " + d.Disease}
		}
		for _, test := range named {
			if !seen[test] {
				seen[test] = true
				tests = append(tests, test)
			}
		}
	}
	return tests
}

func nextSteps(diagnoses []models.Diagnosis) []string {
	if len(diagnoses) == 0 {
		return nil
	}
	return []string{
		"Confirm diagnosis: " + diagnoses[0].Disease,
		"Complete recommended diagnostic tests",
		"Schedule follow-up consultation",
		"Monitor symptoms",
	}
}

func safetyWarnings(state *models.WorkflowState) []string {
	var warnings []string
	if len(state.Patient.Allergies) > 0 {
		warnings = append(warnings, "Allergies: "+strings.Join(state.Patient.Allergies, ", "))
	}
	if len(state.Patient.MedicalHistory) > 0 {
		warnings = append(warnings, "Medical history: "+strings.Join(state.Patient.MedicalHistory, ", "))
	}
	if state.Validation != nil && state.Validation.Urgency.RequiresEmergency {
		warnings = append(warnings, "Urgent symptoms present; seek immediate medical care")
	}
	return warnings
}
