package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmedsage/medsage/internal/knowledge"
	"github.com/getmedsage/medsage/pkg/models"
)

func completedState() *models.WorkflowState {
	return &models.WorkflowState{
		Patient: testPatient(),
		Diagnoses: []models.Diagnosis{
			{Disease: "Dengue Fever", Confidence: 0.83},
			{Disease: "Influenza", Confidence: 0.65},
			{Disease: "Common Cold", Confidence: 0.5},
			{Disease: "Malaria", Confidence: 0.4},
		},
		Validation: &models.Validation{Status: models.ValidationValidated},
		Treatments: []models.Treatment{
			{Type: models.TreatmentMedication, Recommendation: "Paracetamol 500mg as needed"},
		},
		Evaluation: &models.Evaluation{QualityScore: 0.85},
		Status:     models.StatusInProgress,
	}
}

func TestSummarize_TopThreeDiagnoses(t *testing.T) {
	summary := Summarize(completedState(), testKB())

	require.Len(t, summary.TopDiagnoses, 3)
	assert.Equal(t, "Dengue Fever", summary.TopDiagnoses[0].Disease)
	assert.Equal(t, "Common Cold", summary.TopDiagnoses[2].Disease)
	assert.False(t, summary.AssessmentDate.IsZero())
	assert.Equal(t, "John Doe", summary.PatientName)
	assert.InDelta(t, 0.85, summary.QualityScore, 1e-9)
}

func TestSummarize_TestsFromKnowledgeBaseWithFallback(t *testing.T) {
	summary := Summarize(completedState(), testKB())

	// Dengue Fever resolves from the base; Influenza has no known tests and
	// falls back to the generic entry. Common Cold is outside the top two.
	assert.Equal(t, []string{"Dengue NS1 antigen test", "Test for Influenza"}, summary.DiagnosticTests)
}

func TestSummarize_DeduplicatesTests(t *testing.T) {
	kb := &knowledge.Base{Diseases: []models.Disease{
		{ID: "D001", Name: "Dengue Fever", DiagnosticTests: []string{"Complete blood count"}},
		{ID: "D002", Name: "Influenza", DiagnosticTests: []string{"Complete blood count"}},
	}}

	summary := Summarize(completedState(), kb)

	assert.Equal(t, []string{"Complete blood count"}, summary.DiagnosticTests)
}

func TestSummarize_NilKnowledgeBase(t *testing.T) {
	summary := Summarize(completedState(), nil)

	assert.Equal(t, []string{"Test for Dengue Fever", "Test for Influenza"}, summary.DiagnosticTests)
}

func TestSummarize_NextStepsTemplate(t *testing.T) {
	summary := Summarize(completedState(), testKB())

	assert.Equal(t, []string{
		"Confirm diagnosis: Dengue Fever",
		"Complete recommended diagnostic tests",
		"Schedule follow-up consultation",
		"Monitor symptoms",
	}, summary.NextSteps)
}

func TestSummarize_NoDiagnoses(t *testing.T) {
	state := completedState()
	state.Diagnoses = nil

	summary := Summarize(state, testKB())

	assert.Empty(t, summary.TopDiagnoses)
	assert.Empty(t, summary.DiagnosticTests)
	assert.Empty(t, summary.NextSteps)
}

func TestSummarize_SafetyWarnings(t *testing.T) {
	summary := Summarize(completedState(), testKB())

	assert.Equal(t, []string{
		"Allergies: Penicillin",
		"Medical history: Hypertension",
	}, summary.SafetyWarnings)
}

func TestSummarize_UrgentCareWarning(t *testing.T) {
	state := completedState()
	state.Validation.Urgency = models.UrgencyAssessment{
		Level:             models.UrgencyUrgent,
		RequiresEmergency: true,
	}

	summary := Summarize(state, testKB())

	assert.Contains(t, summary.SafetyWarnings, "Urgent symptoms present; seek immediate medical care")
}

func TestSummarize_MissingEvaluation(t *testing.T) {
	state := completedState()
	state.Evaluation = nil

	summary := Summarize(state, testKB())

	assert.Zero(t, summary.QualityScore)
}

func TestSummarize_Repeatable(t *testing.T) {
	state := completedState()

	first := Summarize(state, testKB())
	second := Summarize(state, testKB())

	second.AssessmentDate = first.AssessmentDate
	assert.Equal(t, first, second)
}
