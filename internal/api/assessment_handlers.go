package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/getmedsage/medsage/internal/database"
	"github.com/getmedsage/medsage/internal/workflow"
	"github.com/getmedsage/medsage/pkg/models"
)

// handleCreateAssessment validates the patient, runs the full pipeline, saves
// the result and routes it through the intervention gateway. The response is
// 201 even when a stage failed; clients inspect the state's status.
func (s *Server) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	state, ok := s.initAssessment(w, r)
	if !ok {
		return
	}

	s.orchestrator.Run(r.Context(), state, nil)

	record, tickets, err := s.finishAssessment(r.Context(), state)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save assessment")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"assessment_id": record.ID,
		"state":         state,
		"interventions": tickets,
	})
}

// handleStreamAssessment runs the pipeline while streaming progress events.
// The done event carries the stored record ID.
func (s *Server) handleStreamAssessment(w http.ResponseWriter, r *http.Request) {
	state, ok := s.initAssessment(w, r)
	if !ok {
		return
	}

	emitter := NewSSEEmitter(w)
	if emitter == nil {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	final := s.orchestrator.Run(r.Context(), state, &savingEmitter{server: s, ctx: r.Context(), next: emitter})
	if final.Status == models.StatusError {
		record, _, err := s.finishAssessment(r.Context(), final)
		if err != nil {
			s.log.Error("failed to save assessment", "error", err)
			return
		}
		emitter.Emit(workflow.Event{Type: "info", Message: "assessment saved", AssessmentID: record.ID.String()})
	}
}

// savingEmitter persists the assessment before the done event goes out, so
// the event carries the stored record ID and any tickets the gateway raised.
type savingEmitter struct {
	server *Server
	ctx    context.Context
	next   workflow.Emitter
}

func (e *savingEmitter) Emit(ev workflow.Event) {
	if ev.Type == "done" {
		record, tickets, err := e.server.finishAssessment(e.ctx, ev.State)
		if err != nil {
			e.server.log.Error("failed to save assessment", "error", err)
		} else {
			ev.AssessmentID = record.ID.String()
			if len(tickets) > 0 {
				e.next.Emit(workflow.Event{Type: "info", Message: "flagged for review: " + strings.Join(tickets, ", ")})
			}
		}
	}
	e.next.Emit(ev)
}

// initAssessment decodes and validates the patient payload. On validation
// failure it writes a 400 listing every offending field.
func (s *Server) initAssessment(w http.ResponseWriter, r *http.Request) (*models.WorkflowState, bool) {
	var patient models.Patient
	if err := readJSON(r, &patient); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	state, err := s.orchestrator.Initialize(patient)
	if err != nil {
		var vErr *workflow.ValidationError
		if errors.As(err, &vErr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "invalid patient input",
				"fields": vErr.Fields,
			})
			return nil, false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	return state, true
}

// finishAssessment stores the finished state and routes it through the
// intervention gateway. An embedding failure only costs similarity search,
// so the assessment is saved without a vector.
func (s *Server) finishAssessment(ctx context.Context, state *models.WorkflowState) (*database.Assessment, []string, error) {
	var embedding []float32
	if s.embedder != nil {
		vec, err := s.embedder.EmbedText(ctx, strings.Join(state.Patient.SymptomNames(), ", "))
		if err != nil {
			s.log.Warn("embedding failed", "patient", state.Patient.Name, "error", err)
		} else {
			embedding = vec
		}
	}

	record, err := s.store.SaveAssessment(ctx, state, embedding)
	if err != nil {
		return nil, nil, err
	}

	tickets := s.gateway.Review(ctx, record.ID.String(), state)
	return record, tickets, nil
}

// handleGetAssessment returns a single stored assessment.
func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := parseAssessmentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assessment ID")
		return
	}

	assessment, err := s.store.GetAssessment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if assessment == nil {
		writeError(w, http.StatusNotFound, "assessment not found")
		return
	}

	writeJSON(w, http.StatusOK, assessment)
}

// handleListAssessments returns assessment history, optionally filtered by
// patient name.
func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	assessments, err := s.store.ListAssessments(r.Context(), database.ListAssessmentsParams{
		Patient: r.URL.Query().Get("patient"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list assessments")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"assessments": assessments,
		"limit":       limit,
		"offset":      offset,
	})
}

// handleSimilarAssessments returns stored assessments closest to this one by
// symptom embedding distance.
func (s *Server) handleSimilarAssessments(w http.ResponseWriter, r *http.Request) {
	id, err := parseAssessmentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assessment ID")
		return
	}

	anchor, err := s.store.GetAssessment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if anchor == nil {
		writeError(w, http.StatusNotFound, "assessment not found")
		return
	}

	limit := 5
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 20 {
			limit = parsed
		}
	}

	similar, err := s.store.SimilarAssessments(r.Context(), id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to search similar assessments")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"assessment_id": id,
		"similar":       similar,
	})
}

// handleAssessmentReport renders the stored assessment as a PDF.
func (s *Server) handleAssessmentReport(w http.ResponseWriter, r *http.Request) {
	id, err := parseAssessmentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assessment ID")
		return
	}

	assessment, err := s.store.GetAssessment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if assessment == nil {
		writeError(w, http.StatusNotFound, "assessment not found")
		return
	}
	if assessment.State == nil || assessment.State.FinalSummary == nil {
		writeError(w, http.StatusUnprocessableEntity, "assessment has no final summary")
		return
	}

	pdf, err := s.reports.Generate(assessment.State)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=assessment-%s.pdf", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// handleAssessmentInterventions returns the persisted intervention audit
// trail for one assessment.
func (s *Server) handleAssessmentInterventions(w http.ResponseWriter, r *http.Request) {
	id, err := parseAssessmentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assessment ID")
		return
	}

	interventions, err := s.store.ListInterventions(r.Context(), id.String())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list interventions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"assessment_id": id,
		"interventions": interventions,
	})
}
