package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmedsage/medsage/internal/knowledge"
	"github.com/getmedsage/medsage/internal/logger"
	"github.com/getmedsage/medsage/pkg/models"
)

// scriptedCompleter returns canned responses in call order. The pipeline
// calls the model four times: diagnosis, validation, treatment, evaluation.
type scriptedCompleter struct {
	responses []string
	failAt    int // 1-based call number that fails, 0 for never
	calls     int
}

func (s *scriptedCompleter) Complete(_ context.Context, _ string) (string, error) {
	s.calls++
	if s.failAt != 0 && s.calls == s.failAt {
		return "", errors.New("model unavailable")
	}
	if s.calls > len(s.responses) {
		return "", errors.New("unexpected model call")
	}
	return s.responses[s.calls-1], nil
}

type collectEmitter struct {
	events []Event
}

func (c *collectEmitter) Emit(ev Event) {
	c.events = append(c.events, ev)
}

func testKB() *knowledge.Base {
	return &knowledge.Base{
		Diseases: []models.Disease{
			{
				ID:              "D001",
				Name:            "Dengue Fever",
				Symptoms:        []string{"fever", "headache", "rash"},
				RiskFactors:     []string{"mosquito exposure"},
				Treatments:      []string{"Paracetamol for fever"},
				DiagnosticTests: []string{"Dengue NS1 antigen test"},
			},
			{
				ID:         "D002",
				Name:       "Influenza",
				Symptoms:   []string{"fever", "cough"},
				Treatments: []string{"Rest"},
			},
		},
	}
}

func testPatient() models.Patient {
	return models.Patient{
		Name:   "John Doe",
		Age:    34,
		Gender: "M",
		Symptoms: []models.Symptom{
			{Name: "fever", Severity: models.SeveritySevere, DurationDays: 3},
			{Name: "headache", Severity: models.SeverityModerate, DurationDays: 2},
		},
		Allergies:      []string{"Penicillin"},
		MedicalHistory: []string{"Hypertension"},
	}
}

func fullRunResponses() []string {
	return []string{
		"Dengue Fever (83%)\n- High fever for three days\nInfluenza (60%)",
		"Dengue fever matches the fever and headache pattern well.",
		"Medication: Paracetamol 500mg every 6 hours\nTest: Dengue NS1 antigen test\nLifestyle: increase fluid intake daily",
		"Overall quality score: 85%\nStrengths: strength in symptom coverage",
	}
}

func TestInitialize_ValidPatient(t *testing.T) {
	o := New(&scriptedCompleter{}, testKB(), logger.Discard())

	state, err := o.Initialize(testPatient())
	require.NoError(t, err)

	assert.Equal(t, models.StatusInitialized, state.Status)
	assert.Equal(t, "John Doe", state.Patient.Name)
	assert.False(t, state.CreatedAt.IsZero())
	assert.Nil(t, state.MedicalData)
	assert.Nil(t, state.Diagnoses)
	assert.Nil(t, state.Validation)
	assert.Nil(t, state.Treatments)
	assert.Nil(t, state.Evaluation)
	assert.Nil(t, state.FinalSummary)
}

func TestInitialize_InvalidPatient(t *testing.T) {
	o := New(&scriptedCompleter{}, testKB(), logger.Discard())

	state, err := o.Initialize(models.Patient{Gender: "unknown"})
	require.Error(t, err)
	assert.Nil(t, state)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	fields := make([]string, 0, len(vErr.Fields))
	for _, f := range vErr.Fields {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"name", "age", "gender", "symptoms"}, fields)
}

func TestRun_CompletesAllStages(t *testing.T) {
	completer := &scriptedCompleter{responses: fullRunResponses()}
	o := New(completer, testKB(), logger.Discard())
	emitter := &collectEmitter{}

	state, err := o.Initialize(testPatient())
	require.NoError(t, err)

	result := o.Run(context.Background(), state, emitter)

	assert.Same(t, state, result, "state is mutated in place")
	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.Empty(t, result.Error)
	assert.Equal(t, 4, completer.calls)

	require.NotNil(t, result.MedicalData)
	assert.Len(t, result.MedicalData.Diseases, 2)

	require.Len(t, result.Diagnoses, 2)
	assert.Equal(t, "Dengue Fever", result.Diagnoses[0].Disease)
	assert.InDelta(t, 0.83, result.Diagnoses[0].Confidence, 1e-9)
	assert.Equal(t, "Influenza", result.Diagnoses[1].Disease)

	require.NotNil(t, result.Validation)
	assert.Equal(t, models.ValidationValidated, result.Validation.Status)
	assert.Equal(t, models.UrgencyNormal, result.Validation.Urgency.Level)

	require.Len(t, result.Treatments, 3)
	assert.Equal(t, models.TreatmentMedication, result.Treatments[0].Type)

	require.NotNil(t, result.Evaluation)
	assert.InDelta(t, 0.85, result.Evaluation.QualityScore, 1e-9)
	assert.True(t, result.Evaluation.Safety.Complete)

	require.NotNil(t, result.FinalSummary)
	summary := result.FinalSummary
	assert.Equal(t, "John Doe", summary.PatientName)
	assert.Equal(t, []string{"fever", "headache"}, summary.Symptoms)
	assert.Len(t, summary.TopDiagnoses, 2)
	assert.Equal(t, []string{"Dengue NS1 antigen test", "Test for Influenza"}, summary.DiagnosticTests)
	assert.Equal(t, "Confirm diagnosis: Dengue Fever", summary.NextSteps[0])
	assert.Contains(t, summary.SafetyWarnings, "Allergies: Penicillin")
	assert.Contains(t, summary.SafetyWarnings, "Medical history: Hypertension")
	assert.InDelta(t, 0.85, summary.QualityScore, 1e-9)
}

func TestRun_EmitsStageEventsInOrder(t *testing.T) {
	o := New(&scriptedCompleter{responses: fullRunResponses()}, testKB(), logger.Discard())
	emitter := &collectEmitter{}

	state, err := o.Initialize(testPatient())
	require.NoError(t, err)
	o.Run(context.Background(), state, emitter)

	require.Len(t, emitter.events, 7)

	wantStages := []string{"data_retrieval", "diagnosis", "validation", "treatment", "evaluation", "summary"}
	for i, stage := range wantStages {
		assert.Equal(t, "stage", emitter.events[i].Type)
		assert.Equal(t, stage, emitter.events[i].Stage)
		assert.Equal(t, i+1, emitter.events[i].Step)
		assert.Equal(t, len(wantStages), emitter.events[i].Total)
	}

	done := emitter.events[6]
	assert.Equal(t, "done", done.Type)
	require.NotNil(t, done.State)
	assert.Equal(t, models.StatusCompleted, done.State.Status)
}

func TestRun_StageFailureKeepsEarlierResults(t *testing.T) {
	// Call 3 is the treatment stage.
	completer := &scriptedCompleter{responses: fullRunResponses(), failAt: 3}
	o := New(completer, testKB(), logger.Discard())
	emitter := &collectEmitter{}

	state, err := o.Initialize(testPatient())
	require.NoError(t, err)
	result := o.Run(context.Background(), state, emitter)

	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.Error, "stage treatment")
	assert.Contains(t, result.Error, "model unavailable")

	assert.NotNil(t, result.MedicalData)
	assert.NotEmpty(t, result.Diagnoses)
	assert.NotNil(t, result.Validation)
	assert.Nil(t, result.Treatments)
	assert.Nil(t, result.Evaluation)
	assert.Nil(t, result.FinalSummary)

	last := emitter.events[len(emitter.events)-1]
	assert.Equal(t, "error", last.Type)
	assert.Equal(t, "treatment", last.Stage)
}

func TestRun_NilEmitter(t *testing.T) {
	o := New(&scriptedCompleter{responses: fullRunResponses()}, testKB(), logger.Discard())

	state, err := o.Initialize(testPatient())
	require.NoError(t, err)

	result := o.Run(context.Background(), state, nil)
	assert.Equal(t, models.StatusCompleted, result.Status)
}

func TestRun_EmptyKnowledgeBase(t *testing.T) {
	// With nothing retrieved the diagnosis parser has no names to anchor on,
	// validation short-circuits and no treatments are produced. The run still
	// completes; only diagnosis and evaluation reach the model.
	completer := &scriptedCompleter{responses: []string{
		"Insufficient reference data to diagnose.",
		"Quality: 4/10, very little to assess.",
	}}
	o := New(completer, &knowledge.Base{}, logger.Discard())

	state, err := o.Initialize(testPatient())
	require.NoError(t, err)
	result := o.Run(context.Background(), state, nil)

	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.Equal(t, 2, completer.calls)
	assert.Empty(t, result.Diagnoses)
	assert.Equal(t, models.ValidationNoDiagnoses, result.Validation.Status)
	assert.Empty(t, result.Treatments)
	assert.InDelta(t, 0.4, result.Evaluation.QualityScore, 1e-9)
	assert.Empty(t, result.FinalSummary.NextSteps)
}
