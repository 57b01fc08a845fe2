package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/getmedsage/medsage/pkg/models"
)

// assessmentColumns is the standard column list for assessment queries. The
// embedding stays out of it; vector data is only touched by the similarity
// query.
const assessmentColumns = `id, patient_name, patient, state, summary, status, quality_score, urgency, created_at`

// scanAssessment scans a row into an Assessment and unpacks the JSON columns.
func scanAssessment(row pgx.Row) (*Assessment, error) {
	var a Assessment
	var status string
	var patientJSON, stateJSON, summaryJSON []byte
	err := row.Scan(
		&a.ID, &a.PatientName, &patientJSON, &stateJSON, &summaryJSON,
		&status, &a.QualityScore, &a.Urgency, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Status = models.AssessmentStatus(status)
	if err := unmarshalAssessment(patientJSON, stateJSON, summaryJSON, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func unmarshalAssessment(patientJSON, stateJSON, summaryJSON []byte, a *Assessment) error {
	if err := json.Unmarshal(patientJSON, &a.Patient); err != nil {
		return err
	}
	a.State = &models.WorkflowState{}
	if err := json.Unmarshal(stateJSON, a.State); err != nil {
		return err
	}
	if summaryJSON != nil {
		a.Summary = &models.Summary{}
		return json.Unmarshal(summaryJSON, a.Summary)
	}
	return nil
}

// SaveAssessment stores a finished workflow state. A nil or empty embedding
// is stored as NULL and the record is simply excluded from similarity
// queries.
func (db *DB) SaveAssessment(ctx context.Context, state *models.WorkflowState, embedding []float32) (*Assessment, error) {
	patientJSON, err := json.Marshal(state.Patient)
	if err != nil {
		return nil, err
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	var summaryJSON []byte
	if state.FinalSummary != nil {
		summaryJSON, err = json.Marshal(state.FinalSummary)
		if err != nil {
			return nil, err
		}
	}
	quality, urgency := assessmentFields(state)

	var vec *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vec = &v
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO assessments (patient_name, patient, state, summary, status, quality_score, urgency, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+assessmentColumns,
		state.Patient.Name, patientJSON, stateJSON, summaryJSON,
		string(state.Status), quality, urgency, vec,
	)
	return scanAssessment(row)
}

// GetAssessment retrieves an assessment by ID.
func (db *DB) GetAssessment(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE id = $1`,
		id,
	)
	return scanAssessment(row)
}

// ListAssessments returns assessments ordered by creation date descending,
// optionally restricted to one patient name.
func (db *DB) ListAssessments(ctx context.Context, params ListAssessmentsParams) ([]Assessment, error) {
	if params.Limit <= 0 {
		params.Limit = 50
	}

	var rows pgx.Rows
	var err error

	if params.Patient != "" {
		rows, err = db.pool.Query(ctx,
			`SELECT `+assessmentColumns+` FROM assessments
			 WHERE patient_name = $1
			 ORDER BY created_at DESC
			 LIMIT $2 OFFSET $3`,
			params.Patient, params.Limit, params.Offset,
		)
	} else {
		rows, err = db.pool.Query(ctx,
			`SELECT `+assessmentColumns+` FROM assessments
			 ORDER BY created_at DESC
			 LIMIT $1 OFFSET $2`,
			params.Limit, params.Offset,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assessments []Assessment
	for rows.Next() {
		var a Assessment
		var status string
		var patientJSON, stateJSON, summaryJSON []byte
		if err := rows.Scan(
			&a.ID, &a.PatientName, &patientJSON, &stateJSON, &summaryJSON,
			&status, &a.QualityScore, &a.Urgency, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		a.Status = models.AssessmentStatus(status)
		if err := unmarshalAssessment(patientJSON, stateJSON, summaryJSON, &a); err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}

// SimilarAssessments returns the closest stored assessments to the given one
// by cosine distance over the symptom embedding. An assessment without an
// embedding has no neighbours.
func (db *DB) SimilarAssessments(ctx context.Context, id uuid.UUID, limit int) ([]SimilarAssessment, error) {
	if limit <= 0 {
		limit = 5
	}

	var vec *pgvector.Vector
	err := db.pool.QueryRow(ctx,
		`SELECT embedding FROM assessments WHERE id = $1`, id,
	).Scan(&vec)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("assessment %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	if vec == nil {
		return nil, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+assessmentColumns+`, embedding <=> $1 AS distance
		 FROM assessments
		 WHERE id <> $2 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		*vec, id, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var similar []SimilarAssessment
	for rows.Next() {
		var s SimilarAssessment
		var status string
		var patientJSON, stateJSON, summaryJSON []byte
		if err := rows.Scan(
			&s.ID, &s.PatientName, &patientJSON, &stateJSON, &summaryJSON,
			&status, &s.QualityScore, &s.Urgency, &s.CreatedAt, &s.Distance,
		); err != nil {
			return nil, err
		}
		s.Status = models.AssessmentStatus(status)
		if err := unmarshalAssessment(patientJSON, stateJSON, summaryJSON, &s.Assessment); err != nil {
			return nil, err
		}
		similar = append(similar, s)
	}
	return similar, rows.Err()
}
