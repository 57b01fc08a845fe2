package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatConfidence(t *testing.T) {
	assert.Equal(t, "83.0%", FormatConfidence(0.83))
	assert.Equal(t, "0.0%", FormatConfidence(0))
	assert.Equal(t, "100.0%", FormatConfidence(1))
	assert.Equal(t, "65.5%", FormatConfidence(0.655))
}

func TestFormatDiagnosis(t *testing.T) {
	d := Diagnosis{Disease: "Dengue Fever", Confidence: 0.83}
	assert.Equal(t, "Dengue Fever (confidence: 83.0%)", FormatDiagnosis(d))
}

func TestFormatTreatment(t *testing.T) {
	tr := Treatment{Type: TreatmentMedication, Recommendation: "Paracetamol 500mg every 6 hours"}
	assert.Equal(t, "[MEDICATION] Paracetamol 500mg every 6 hours", FormatTreatment(tr))
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"iso timestamp", "2025-03-14T09:26:53Z", "2025-03-14"},
		{"with offset", "2025-03-14T09:26:53+02:00", "2025-03-14"},
		{"date only", "2025-03-14", "2025-03-14"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatDate(tc.input))
		})
	}
}

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		score float64
		want  Risk
	}{
		{0.9, RiskLow},
		{0.75, RiskLow},
		{0.74, RiskModerate},
		{0.5, RiskModerate},
		{0.49, RiskHigh},
		{0, RiskHigh},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, RiskLevel(tc.score), "score %v", tc.score)
	}
}

func TestPatient_SymptomNames(t *testing.T) {
	p := Patient{
		Symptoms: []Symptom{
			{Name: "fever", Severity: SeveritySevere, DurationDays: 3},
			{Name: "cough", Severity: SeverityModerate, DurationDays: 2},
		},
	}
	assert.Equal(t, []string{"fever", "cough"}, p.SymptomNames())

	empty := Patient{}
	assert.Empty(t, empty.SymptomNames())
}

func TestWorkflowState_TopDiagnoses(t *testing.T) {
	st := &WorkflowState{
		Diagnoses: []Diagnosis{
			{Disease: "Dengue Fever", Confidence: 0.83},
			{Disease: "Influenza", Confidence: 0.65},
			{Disease: "Malaria", Confidence: 0.65},
		},
	}

	top := st.TopDiagnoses(2)
	assert.Len(t, top, 2)
	assert.Equal(t, "Dengue Fever", top[0].Disease)
	assert.Equal(t, "Influenza", top[1].Disease)

	// Asking for more than available returns everything.
	assert.Len(t, st.TopDiagnoses(10), 3)

	// The returned slice is a copy.
	top[0].Disease = "changed"
	assert.Equal(t, "Dengue Fever", st.Diagnoses[0].Disease)
}

func TestWorkflowState_QualityScore(t *testing.T) {
	st := &WorkflowState{}
	assert.Zero(t, st.QualityScore())

	st.Evaluation = &Evaluation{QualityScore: 0.75}
	assert.Equal(t, 0.75, st.QualityScore())
}
