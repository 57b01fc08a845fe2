package agents

import (
	"context"
	"errors"

	"github.com/getmedsage/medsage/internal/knowledge"
	"github.com/getmedsage/medsage/pkg/models"
)

// stubCompleter returns a canned response and records the last prompt.
type stubCompleter struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

var errModelDown = errors.New("model unavailable")

func testKB() *knowledge.Base {
	return &knowledge.Base{
		Diseases: []models.Disease{
			{
				ID:              "D001",
				Name:            "Dengue Fever",
				Symptoms:        []string{"fever", "headache", "rash"},
				RiskFactors:     []string{"mosquito exposure", "tropical travel"},
				Treatments:      []string{"Paracetamol for fever", "Oral rehydration"},
				DiagnosticTests: []string{"Dengue NS1 antigen test"},
			},
			{
				ID:          "D002",
				Name:        "Influenza",
				Symptoms:    []string{"fever", "cough"},
				RiskFactors: []string{"seasonal exposure", "mosquito exposure"},
				Treatments:  []string{"Rest", "Fluids"},
			},
		},
		DrugInteractions: []knowledge.DrugInteraction{
			{Drug1: "Warfarin", Drug2: "Aspirin", Severity: "major", Effect: "Increased bleeding risk"},
		},
	}
}

func testPatient() models.Patient {
	return models.Patient{
		Name:   "John Doe",
		Age:    34,
		Gender: "male",
		Symptoms: []models.Symptom{
			{Name: "fever", Severity: models.SeveritySevere, DurationDays: 3},
			{Name: "cough", Severity: models.SeverityModerate, DurationDays: 2},
		},
		Allergies:      []string{"Penicillin"},
		MedicalHistory: []string{"Hypertension"},
	}
}
