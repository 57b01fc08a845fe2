package models

import "time"

// AssessmentStatus represents the lifecycle state of a workflow run
type AssessmentStatus string

const (
	StatusInitialized AssessmentStatus = "initialized"
	StatusInProgress  AssessmentStatus = "in_progress"
	StatusCompleted   AssessmentStatus = "completed"
	StatusError       AssessmentStatus = "error"
)

// Disease represents a knowledge-base disease entry
type Disease struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Symptoms        []string `json:"symptoms"`
	RiskFactors     []string `json:"risk_factors,omitempty"`
	Treatments      []string `json:"treatments,omitempty"`
	DiagnosticTests []string `json:"diagnostic_tests,omitempty"`
}

// MedicalData represents knowledge retrieved for the reported symptoms
type MedicalData struct {
	Diseases    []Disease `json:"diseases"`
	RiskFactors []string  `json:"risk_factors"`
	Treatments  []string  `json:"treatments"`
}

// Diagnosis represents a candidate condition with model confidence
type Diagnosis struct {
	Disease    string   `json:"disease"`
	Confidence float64  `json:"confidence"`
	Indicators []string `json:"indicators,omitempty"`
}

// ValidationStatus indicates whether diagnoses were available to validate
type ValidationStatus string

const (
	ValidationValidated   ValidationStatus = "validated"
	ValidationNoDiagnoses ValidationStatus = "no_diagnoses"
)

// UrgencyLevel classifies how quickly the patient should seek care
type UrgencyLevel string

const (
	UrgencyNormal UrgencyLevel = "normal"
	UrgencyUrgent UrgencyLevel = "urgent"
)

// UrgencyAssessment represents the deterministic urgent-symptom screen
type UrgencyAssessment struct {
	Level             UrgencyLevel `json:"level"`
	UrgentSymptoms    []string     `json:"urgent_symptoms,omitempty"`
	RequiresEmergency bool         `json:"requires_emergency_care"`
}

// Validation represents the reasoning stage output
type Validation struct {
	Status    ValidationStatus  `json:"status"`
	Reasoning string            `json:"reasoning,omitempty"`
	Diagnoses []Diagnosis       `json:"diagnoses"`
	Urgency   UrgencyAssessment `json:"urgency"`
}

// TreatmentType classifies a recommendation line
type TreatmentType string

const (
	TreatmentMedication   TreatmentType = "medication"
	TreatmentTest         TreatmentType = "test"
	TreatmentLifestyle    TreatmentType = "lifestyle"
	TreatmentConsultation TreatmentType = "consultation"
)

// Treatment represents a single care recommendation
type Treatment struct {
	Type                 TreatmentType `json:"type"`
	Recommendation       string        `json:"recommendation"`
	Justification        string        `json:"justification,omitempty"`
	Confidence           float64       `json:"confidence"`
	Contraindicated      bool          `json:"contraindicated,omitempty"`
	ContraindicationNote string        `json:"contraindication_note,omitempty"`
}

// IntegrityWarning represents a non-fatal finding from the safety checks
type IntegrityWarning struct {
	Check  string `json:"check"`
	Detail string `json:"detail"`
}

// SafetyReport represents the outcome of the deterministic safety checks
type SafetyReport struct {
	Complete bool               `json:"complete"`
	Warnings []IntegrityWarning `json:"warnings,omitempty"`
}

// Evaluation represents the quality review of the full assessment
type Evaluation struct {
	QualityScore   float64      `json:"quality_score"`
	Strengths      []string     `json:"strengths,omitempty"`
	Concerns       []string     `json:"concerns,omitempty"`
	FullEvaluation string       `json:"full_evaluation,omitempty"`
	Safety         SafetyReport `json:"safety"`
}

// Summary represents the patient-facing result of a completed assessment
type Summary struct {
	PatientName     string      `json:"patient_name"`
	AssessmentDate  time.Time   `json:"assessment_date"`
	Symptoms        []string    `json:"symptoms"`
	TopDiagnoses    []Diagnosis `json:"top_diagnoses"`
	Treatments      []Treatment `json:"treatments"`
	DiagnosticTests []string    `json:"diagnostic_tests"`
	NextSteps       []string    `json:"next_steps"`
	SafetyWarnings  []string    `json:"safety_warnings"`
	QualityScore    float64     `json:"quality_score"`
}

// WorkflowState carries the patient input and every stage result through the
// pipeline. A stage field stays nil until its stage completes, so a partially
// failed run remains readable: everything before the failing stage is
// populated, everything after is nil and Status is StatusError.
type WorkflowState struct {
	Patient      Patient          `json:"patient"`
	MedicalData  *MedicalData     `json:"medical_data"`
	Diagnoses    []Diagnosis      `json:"diagnoses"`
	Validation   *Validation      `json:"validation"`
	Treatments   []Treatment      `json:"treatments"`
	Evaluation   *Evaluation      `json:"evaluation"`
	FinalSummary *Summary         `json:"final_summary"`
	Status       AssessmentStatus `json:"status"`
	Error        string           `json:"error,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// TopDiagnoses returns up to n diagnoses in stored (confidence-descending)
// order without mutating the state.
func (s *WorkflowState) TopDiagnoses(n int) []Diagnosis {
	if n > len(s.Diagnoses) {
		n = len(s.Diagnoses)
	}
	top := make([]Diagnosis, n)
	copy(top, s.Diagnoses[:n])
	return top
}

// QualityScore returns the evaluated quality score, or 0 when the evaluation
// stage never completed.
func (s *WorkflowState) QualityScore() float64 {
	if s.Evaluation == nil {
		return 0
	}
	return s.Evaluation.QualityScore
}
