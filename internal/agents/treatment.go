package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getmedsage/medsage/internal/knowledge"
	"github.com/getmedsage/medsage/internal/llm"
	"github.com/getmedsage/medsage/pkg/models"
)

const (
	treatmentConfidence    = 0.75
	treatmentJustification = "As recommended by medical guidelines"
	maxTreatments          = 10
)

// TreatmentAgent turns diagnoses into care recommendations and screens them
// against the patient's allergies and current medications.
type TreatmentAgent struct {
	llm llm.Completer
	kb  *knowledge.Base
	log *slog.Logger
}

// NewTreatmentAgent creates a TreatmentAgent using the given model client and
// knowledge base.
func NewTreatmentAgent(completer llm.Completer, kb *knowledge.Base, log *slog.Logger) *TreatmentAgent {
	return &TreatmentAgent{llm: completer, kb: kb, log: log}
}

// RecommendTreatments asks the model for treatments covering the top two
// diagnoses and parses each response line into a typed recommendation. The
// contraindication screen then flags, never drops, any medication matching a
// declared allergy or interacting with a current medication. No diagnoses
// means no treatments and no model call.
func (a *TreatmentAgent) RecommendTreatments(ctx context.Context, diagnoses []models.Diagnosis, patient models.Patient) ([]models.Treatment, error) {
	a.log.Info("recommending treatments")

	if len(diagnoses) == 0 {
		return []models.Treatment{}, nil
	}

	response, err := a.llm.Complete(ctx, buildTreatmentPrompt(diagnoses, patient))
	if err != nil {
		return nil, fmt.Errorf("treatment recommendation: %w", err)
	}

	treatments := parseTreatments(response)
	treatments = flagContraindications(treatments, patient, a.kb)

	a.log.Info("generated treatment recommendations", "count", len(treatments))
	return treatments, nil
}

func buildTreatmentPrompt(diagnoses []models.Diagnosis, patient models.Patient) string {
	var b strings.Builder

	b.WriteString("Recommend treatments for:\n\n")
	b.WriteString("Patient Information:\n")
	fmt.Fprintf(&b, "- Age: %d\n", patient.Age)
	fmt.Fprintf(&b, "- Allergies: %s\n", joinOrNone(patient.Allergies))
	fmt.Fprintf(&b, "- Current medications: %s\n", joinOrNone(patient.Medications))
	fmt.Fprintf(&b, "- Medical history: %s\n\n", joinOrNone(patient.MedicalHistory))

	b.WriteString("Diagnoses:\n")
	top := diagnoses
	if len(top) > 2 {
		top = top[:2]
	}
	for _, d := range top {
		fmt.Fprintf(&b, "- %s\n", d.Disease)
	}

	b.WriteString(`
Provide:
1. Medication recommendations with dosage
2. Diagnostic tests to confirm diagnosis
3. Lifestyle modifications
4. Any precautions or warnings
5. When to seek emergency care

Check for:
- Drug interactions
- Allergy contraindications
- Age-appropriate dosing

Format clearly with sections.
`)
	return b.String()
}

// parseTreatments classifies each response line by keyword: test, lifestyle
// or consultation, defaulting to medication. Lines of ten characters or fewer
// are treated as headings and skipped. At most ten recommendations survive.
func parseTreatments(response string) []models.Treatment {
	var treatments []models.Treatment

	for _, raw := range strings.Split(response, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		treatmentType := models.TreatmentMedication
		switch {
		case strings.Contains(lower, "test") || strings.Contains(lower, "diagnostic"):
			treatmentType = models.TreatmentTest
		case strings.Contains(lower, "lifestyle") || strings.Contains(lower, "modify"):
			treatmentType = models.TreatmentLifestyle
		case strings.Contains(lower, "consult") || strings.Contains(lower, "specialist"):
			treatmentType = models.TreatmentConsultation
		}

		if len(line) > 10 {
			treatments = append(treatments, models.Treatment{
				Type:           treatmentType,
				Recommendation: trimBullet(line),
				Justification:  treatmentJustification,
				Confidence:     treatmentConfidence,
			})
		}

		if len(treatments) == maxTreatments {
			break
		}
	}

	if treatments == nil {
		treatments = []models.Treatment{}
	}
	return treatments
}

// flagContraindications marks medication recommendations whose text contains
// one of the patient's declared allergies (case-insensitive substring), or
// that pair with a current medication in the known-interaction list. Flagged
// treatments stay in the result so reviewers see what was suggested and why
// it is unsafe.
func flagContraindications(treatments []models.Treatment, patient models.Patient, kb *knowledge.Base) []models.Treatment {
	for i := range treatments {
		t := &treatments[i]
		if t.Type != models.TreatmentMedication {
			continue
		}

		recommendation := strings.ToLower(t.Recommendation)
		for _, allergy := range patient.Allergies {
			allergy = strings.TrimSpace(allergy)
			if allergy == "" {
				continue
			}
			if strings.Contains(recommendation, strings.ToLower(allergy)) {
				t.Contraindicated = true
				t.ContraindicationNote = fmt.Sprintf("matches declared allergy: %s", allergy)
				break
			}
		}
		if t.Contraindicated || kb == nil {
			continue
		}

		for _, med := range patient.Medications {
			if interaction, ok := kb.FindInteraction(t.Recommendation, med); ok {
				t.Contraindicated = true
				note := fmt.Sprintf("interacts with %s", med)
				if interaction.Effect != "" {
					note += ": " + interaction.Effect
				}
				t.ContraindicationNote = note
				break
			}
		}
	}
	return treatments
}
