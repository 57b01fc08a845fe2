package workflow

import (
	"fmt"
	"slices"
	"strings"

	"github.com/getmedsage/medsage/pkg/models"
)

const maxPatientAge = 150

var validGenders = []string{"Male", "Female", "Other", "M", "F"}

// ValidatePatient checks the assessment input and returns a *ValidationError
// listing every invalid field, or nil when the input is acceptable. An age of
// zero is treated as missing rather than as a newborn.
func ValidatePatient(patient models.Patient) error {
	var fields []FieldError

	if strings.TrimSpace(patient.Name) == "" {
		fields = append(fields, FieldError{Field: "name", Message: "patient name is required"})
	}

	switch {
	case patient.Age == 0:
		fields = append(fields, FieldError{Field: "age", Message: "patient age is required"})
	case patient.Age < 0 || patient.Age > maxPatientAge:
		fields = append(fields, FieldError{Field: "age", Message: fmt.Sprintf("patient age must be between 0 and %d", maxPatientAge)})
	}

	switch {
	case patient.Gender == "":
		fields = append(fields, FieldError{Field: "gender", Message: "patient gender is required"})
	case !slices.Contains(validGenders, patient.Gender):
		fields = append(fields, FieldError{
			Field:   "gender",
			Message: "patient gender must be one of: " + strings.Join(validGenders, ", "),
		})
	}

	if len(patient.Symptoms) == 0 {
		fields = append(fields, FieldError{Field: "symptoms", Message: "at least one symptom is required"})
	}
	for i, symptom := range patient.Symptoms {
		fields = append(fields, validateSymptom(i, symptom)...)
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func validateSymptom(i int, symptom models.Symptom) []FieldError {
	var fields []FieldError

	if strings.TrimSpace(symptom.Name) == "" {
		fields = append(fields, FieldError{
			Field:   fmt.Sprintf("symptoms[%d].name", i),
			Message: "symptom name is required",
		})
	}

	// An unset severity defaults to moderate downstream.
	if symptom.Severity != "" {
		switch models.Severity(strings.ToLower(string(symptom.Severity))) {
		case models.SeverityMild, models.SeverityModerate, models.SeveritySevere:
		default:
			fields = append(fields, FieldError{
				Field:   fmt.Sprintf("symptoms[%d].severity", i),
				Message: "severity must be one of: mild, moderate, severe",
			})
		}
	}

	if symptom.DurationDays < 0 {
		fields = append(fields, FieldError{
			Field:   fmt.Sprintf("symptoms[%d].duration_days", i),
			Message: "duration must be non-negative",
		})
	}

	return fields
}
