// Package knowledge loads the static disease knowledge base and answers
// symptom, disease and drug-interaction lookups for the pipeline agents.
// The base is read once at startup and shared read-only across assessments.
package knowledge

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"github.com/getmedsage/medsage/pkg/models"
)

// DrugInteraction represents a known interaction between two drugs
type DrugInteraction struct {
	Drug1    string `json:"drug1"`
	Drug2    string `json:"drug2"`
	Severity string `json:"severity,omitempty"`
	Effect   string `json:"effect,omitempty"`
}

// Allergy represents a known allergen entry
type Allergy struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Reactions []string `json:"reactions,omitempty"`
}

// Base is the in-memory knowledge base
type Base struct {
	Diseases         []models.Disease  `json:"diseases"`
	DrugInteractions []DrugInteraction `json:"drug_interactions"`
	Allergies        []Allergy         `json:"allergies"`
	Symptoms         []string          `json:"symptoms"`
}

// Load reads the knowledge base JSON at path. A missing or unreadable file is
// not fatal: the pipeline proceeds on LLM knowledge alone, so Load logs the
// problem and returns an empty base.
func Load(path string, log *slog.Logger) *Base {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("knowledge base unavailable, continuing with empty base",
			"path", path, "error", err)
		return &Base{}
	}

	var base Base
	if err := json.Unmarshal(data, &base); err != nil {
		log.Warn("knowledge base malformed, continuing with empty base",
			"path", path, "error", err)
		return &Base{}
	}

	log.Info("knowledge base loaded", "path", path, "diseases", len(base.Diseases))
	return &base
}

// Empty reports whether the base has no disease entries.
func (b *Base) Empty() bool {
	return len(b.Diseases) == 0
}

// DiseaseCount returns the number of disease entries.
func (b *Base) DiseaseCount() int {
	return len(b.Diseases)
}

// DiseaseNames returns all disease names in file order.
func (b *Base) DiseaseNames() []string {
	names := make([]string, 0, len(b.Diseases))
	for _, d := range b.Diseases {
		names = append(names, d.Name)
	}
	return names
}

// SearchBySymptoms returns every disease sharing at least one symptom with the
// given list. Matching is a case-insensitive exact name comparison, results
// are deduplicated by disease ID and keep file order.
func (b *Base) SearchBySymptoms(symptoms []string) []models.Disease {
	if len(symptoms) == 0 {
		return nil
	}

	wanted := make(map[string]bool, len(symptoms))
	for _, s := range symptoms {
		wanted[strings.ToLower(strings.TrimSpace(s))] = true
	}

	var matches []models.Disease
	seen := make(map[string]bool)
	for _, disease := range b.Diseases {
		if seen[disease.ID] {
			continue
		}
		for _, symptom := range disease.Symptoms {
			if wanted[strings.ToLower(symptom)] {
				matches = append(matches, disease)
				seen[disease.ID] = true
				break
			}
		}
	}
	return matches
}

// Disease looks up a disease by name, case-insensitively.
func (b *Base) Disease(name string) (models.Disease, bool) {
	for _, d := range b.Diseases {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return models.Disease{}, false
}

// DiagnosticTests returns the recommended tests for a disease, or nil when the
// disease is unknown to the base.
func (b *Base) DiagnosticTests(diseaseName string) []string {
	d, ok := b.Disease(diseaseName)
	if !ok {
		return nil
	}
	return d.DiagnosticTests
}

// FindInteraction reports whether the two medication descriptions mention a
// known interacting drug pair. Matching is a case-insensitive substring test
// in both pair orders.
func (b *Base) FindInteraction(medA, medB string) (DrugInteraction, bool) {
	a := strings.ToLower(medA)
	bb := strings.ToLower(medB)
	for _, di := range b.DrugInteractions {
		d1 := strings.ToLower(di.Drug1)
		d2 := strings.ToLower(di.Drug2)
		if (strings.Contains(a, d1) && strings.Contains(bb, d2)) ||
			(strings.Contains(a, d2) && strings.Contains(bb, d1)) {
			return di, true
		}
	}
	return DrugInteraction{}, false
}
