package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/getmedsage/medsage/internal/intervention"
	"github.com/getmedsage/medsage/pkg/models"
)

// Assessment is a stored workflow run. The embedding column is queried only
// through SimilarAssessments and never scanned into this struct.
type Assessment struct {
	ID           uuid.UUID
	PatientName  string
	Patient      models.Patient
	State        *models.WorkflowState
	Summary      *models.Summary
	Status       models.AssessmentStatus
	QualityScore *float64
	Urgency      *string
	CreatedAt    time.Time
}

// SimilarAssessment is an assessment ranked by cosine distance to a query
// embedding. Lower distance means more similar.
type SimilarAssessment struct {
	Assessment
	Distance float64
}

// ListAssessmentsParams contains parameters for listing assessments.
type ListAssessmentsParams struct {
	Patient string
	Limit   int
	Offset  int
}

// Store is the persistence surface shared by the Postgres implementation and
// the in-memory fallback. Assessments are append-only.
type Store interface {
	SaveAssessment(ctx context.Context, state *models.WorkflowState, embedding []float32) (*Assessment, error)
	GetAssessment(ctx context.Context, id uuid.UUID) (*Assessment, error)
	ListAssessments(ctx context.Context, params ListAssessmentsParams) ([]Assessment, error)
	SimilarAssessments(ctx context.Context, id uuid.UUID, limit int) ([]SimilarAssessment, error)
	SaveIntervention(ctx context.Context, ticket *intervention.Request) error
	ListInterventions(ctx context.Context, assessmentID string) ([]intervention.Request, error)
	Ping(ctx context.Context) error
	Close()
}

// assessmentFields derives the projection columns stored alongside the state
// document so history queries never have to unpack the full state.
func assessmentFields(state *models.WorkflowState) (quality *float64, urgency *string) {
	if state.Evaluation != nil {
		q := state.Evaluation.QualityScore
		quality = &q
	}
	if state.Validation != nil {
		u := string(state.Validation.Urgency.Level)
		urgency = &u
	}
	return quality, urgency
}
