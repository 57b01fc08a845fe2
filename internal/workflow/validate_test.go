package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmedsage/medsage/pkg/models"
)

func validPatient() models.Patient {
	return models.Patient{
		Name:   "Jane Roe",
		Age:    40,
		Gender: "Female",
		Symptoms: []models.Symptom{
			{Name: "cough", Severity: models.SeverityMild, DurationDays: 2},
		},
	}
}

func singleFieldError(t *testing.T, patient models.Patient) FieldError {
	t.Helper()
	err := ValidatePatient(patient)
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Fields, 1)
	return vErr.Fields[0]
}

func TestValidatePatient_Valid(t *testing.T) {
	assert.NoError(t, ValidatePatient(validPatient()))
}

func TestValidatePatient_ShortGenderCodes(t *testing.T) {
	for _, gender := range []string{"M", "F", "Male", "Female", "Other"} {
		p := validPatient()
		p.Gender = gender
		assert.NoError(t, ValidatePatient(p), "gender %q", gender)
	}
}

func TestValidatePatient_MissingName(t *testing.T) {
	p := validPatient()
	p.Name = "   "

	f := singleFieldError(t, p)
	assert.Equal(t, "name", f.Field)
}

func TestValidatePatient_ZeroAgeIsMissing(t *testing.T) {
	p := validPatient()
	p.Age = 0

	f := singleFieldError(t, p)
	assert.Equal(t, "age", f.Field)
	assert.Equal(t, "patient age is required", f.Message)
}

func TestValidatePatient_AgeOutOfRange(t *testing.T) {
	for _, age := range []int{-5, 151, 200} {
		p := validPatient()
		p.Age = age

		f := singleFieldError(t, p)
		assert.Equal(t, "age", f.Field, "age %d", age)
		assert.Contains(t, f.Message, "between 0 and 150")
	}
}

func TestValidatePatient_GenderCaseSensitive(t *testing.T) {
	p := validPatient()
	p.Gender = "female"

	f := singleFieldError(t, p)
	assert.Equal(t, "gender", f.Field)
	assert.Contains(t, f.Message, "must be one of")
}

func TestValidatePatient_NoSymptoms(t *testing.T) {
	p := validPatient()
	p.Symptoms = nil

	f := singleFieldError(t, p)
	assert.Equal(t, "symptoms", f.Field)
}

func TestValidatePatient_SymptomFields(t *testing.T) {
	p := validPatient()
	p.Symptoms = []models.Symptom{
		{Name: "", Severity: models.SeverityMild},
		{Name: "fever", Severity: "critical"},
		{Name: "cough", DurationDays: -1},
	}

	err := ValidatePatient(p)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Fields, 3)

	assert.Equal(t, "symptoms[0].name", vErr.Fields[0].Field)
	assert.Equal(t, "symptoms[1].severity", vErr.Fields[1].Field)
	assert.Equal(t, "symptoms[2].duration_days", vErr.Fields[2].Field)
}

func TestValidatePatient_SeverityCaseInsensitive(t *testing.T) {
	p := validPatient()
	p.Symptoms = []models.Symptom{{Name: "fever", Severity: "SEVERE"}}

	assert.NoError(t, ValidatePatient(p))
}

func TestValidatePatient_EmptySeverityAllowed(t *testing.T) {
	p := validPatient()
	p.Symptoms = []models.Symptom{{Name: "fever"}}

	assert.NoError(t, ValidatePatient(p))
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{
		{Field: "name", Message: "patient name is required"},
		{Field: "age", Message: "patient age is required"},
	}}

	assert.Equal(t, "invalid patient input: name: patient name is required; age: patient age is required", err.Error())
}

func TestStageError_WrapsCause(t *testing.T) {
	cause := assert.AnError
	err := &StageError{Stage: "diagnosis", Err: cause}

	assert.Equal(t, "stage diagnosis: "+cause.Error(), err.Error())
	assert.ErrorIs(t, err, cause)
}
