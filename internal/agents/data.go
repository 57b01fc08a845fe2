// Package agents implements the five pipeline stages: knowledge retrieval,
// diagnosis, reasoning, treatment and evaluation. Stages that call the model
// keep their parsing in pure package-level functions so the text-to-struct
// boundary stays testable without a live API.
package agents

import (
	"context"
	"log/slog"

	"github.com/getmedsage/medsage/internal/knowledge"
	"github.com/getmedsage/medsage/pkg/models"
)

// DataAgent retrieves knowledge-base context for the reported symptoms.
// It is fully deterministic and makes no model calls.
type DataAgent struct {
	kb  *knowledge.Base
	log *slog.Logger
}

// NewDataAgent creates a DataAgent backed by the given knowledge base.
func NewDataAgent(kb *knowledge.Base, log *slog.Logger) *DataAgent {
	return &DataAgent{kb: kb, log: log}
}

// FetchMedicalData returns the diseases sharing at least one symptom with the
// patient, plus their pooled risk factors and treatments. Risk factors are
// deduplicated in first-seen order; treatments keep duplicates so later stages
// see how often the base suggests them. An empty base yields an empty result,
// never an error: the pipeline proceeds on model knowledge alone.
func (a *DataAgent) FetchMedicalData(ctx context.Context, symptoms []string) (*models.MedicalData, error) {
	a.log.Info("fetching medical data", "symptoms", symptoms)

	data := &models.MedicalData{
		Diseases:    []models.Disease{},
		RiskFactors: []string{},
		Treatments:  []string{},
	}

	if a.kb.Empty() {
		a.log.Warn("knowledge base is empty")
		return data, nil
	}

	if matches := a.kb.SearchBySymptoms(symptoms); len(matches) > 0 {
		data.Diseases = matches
	}

	seenRisk := make(map[string]bool)
	for _, disease := range data.Diseases {
		for _, rf := range disease.RiskFactors {
			if !seenRisk[rf] {
				seenRisk[rf] = true
				data.RiskFactors = append(data.RiskFactors, rf)
			}
		}
		data.Treatments = append(data.Treatments, disease.Treatments...)
	}

	a.log.Info("found related diseases", "count", len(data.Diseases))
	return data, nil
}
