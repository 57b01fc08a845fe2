package models

// Severity represents how strongly a symptom presents
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Symptom represents a single reported symptom
type Symptom struct {
	Name         string   `json:"name"`
	Severity     Severity `json:"severity"`
	DurationDays int      `json:"duration_days"`
	Description  string   `json:"description,omitempty"`
}

// Patient represents the demographic and clinical input to an assessment
type Patient struct {
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Gender         string    `json:"gender"`
	Symptoms       []Symptom `json:"symptoms"`
	MedicalHistory []string  `json:"medical_history,omitempty"`
	Medications    []string  `json:"medications,omitempty"`
	Allergies      []string  `json:"allergies,omitempty"`
}

// SymptomNames returns the names of all reported symptoms in input order.
func (p *Patient) SymptomNames() []string {
	names := make([]string, 0, len(p.Symptoms))
	for _, s := range p.Symptoms {
		names = append(names, s.Name)
	}
	return names
}
