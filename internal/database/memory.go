package database

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/getmedsage/medsage/internal/intervention"
	"github.com/getmedsage/medsage/pkg/models"
)

// MemoryStore is the in-process Store used when no database is configured.
// It keeps the same append-only contract as the Postgres store, including a
// linear cosine scan in place of the vector index.
type MemoryStore struct {
	mu            sync.RWMutex
	assessments   map[uuid.UUID]*memoryAssessment
	order         []uuid.UUID
	interventions map[string]*intervention.Request
}

type memoryAssessment struct {
	record    Assessment
	embedding []float32
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assessments:   make(map[uuid.UUID]*memoryAssessment),
		interventions: make(map[string]*intervention.Request),
	}
}

// SaveAssessment stores a finished workflow state.
func (s *MemoryStore) SaveAssessment(_ context.Context, state *models.WorkflowState, embedding []float32) (*Assessment, error) {
	quality, urgency := assessmentFields(state)
	record := Assessment{
		ID:           uuid.New(),
		PatientName:  state.Patient.Name,
		Patient:      state.Patient,
		State:        state,
		Summary:      state.FinalSummary,
		Status:       state.Status,
		QualityScore: quality,
		Urgency:      urgency,
		CreatedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[record.ID] = &memoryAssessment{record: record, embedding: embedding}
	s.order = append(s.order, record.ID)

	out := record
	return &out, nil
}

// GetAssessment retrieves an assessment by ID, nil when unknown.
func (s *MemoryStore) GetAssessment(_ context.Context, id uuid.UUID) (*Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.assessments[id]
	if !ok {
		return nil, nil
	}
	out := stored.record
	return &out, nil
}

// ListAssessments returns assessments newest first, optionally restricted to
// one patient name.
func (s *MemoryStore) ListAssessments(_ context.Context, params ListAssessmentsParams) ([]Assessment, error) {
	if params.Limit <= 0 {
		params.Limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Assessment
	for i := len(s.order) - 1; i >= 0; i-- {
		stored := s.assessments[s.order[i]]
		if params.Patient != "" && stored.record.PatientName != params.Patient {
			continue
		}
		matched = append(matched, stored.record)
	}

	if params.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[params.Offset:]
	if len(matched) > params.Limit {
		matched = matched[:params.Limit]
	}
	return matched, nil
}

// SimilarAssessments scans every stored embedding and returns the closest
// assessments by cosine distance.
func (s *MemoryStore) SimilarAssessments(_ context.Context, id uuid.UUID, limit int) ([]SimilarAssessment, error) {
	if limit <= 0 {
		limit = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	anchor, ok := s.assessments[id]
	if !ok {
		return nil, fmt.Errorf("assessment %s not found", id)
	}
	if len(anchor.embedding) == 0 {
		return nil, nil
	}

	var similar []SimilarAssessment
	for _, otherID := range s.order {
		if otherID == id {
			continue
		}
		other := s.assessments[otherID]
		if len(other.embedding) != len(anchor.embedding) {
			continue
		}
		similar = append(similar, SimilarAssessment{
			Assessment: other.record,
			Distance:   cosineDistance(anchor.embedding, other.embedding),
		})
	}

	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].Distance < similar[j].Distance
	})
	if len(similar) > limit {
		similar = similar[:limit]
	}
	return similar, nil
}

// SaveIntervention upserts an intervention ticket keyed by its request ID.
func (s *MemoryStore) SaveIntervention(_ context.Context, ticket *intervention.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *ticket
	s.interventions[ticket.ID] = &stored
	return nil
}

// ListInterventions returns the persisted tickets for an assessment in
// request-ID order.
func (s *MemoryStore) ListInterventions(_ context.Context, assessmentID string) ([]intervention.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tickets []intervention.Request
	for _, stored := range s.interventions {
		if stored.AssessmentID == assessmentID {
			tickets = append(tickets, *stored)
		}
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].ID < tickets[j].ID })
	return tickets, nil
}

// Ping always succeeds; the store lives in process memory.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() {}

func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
