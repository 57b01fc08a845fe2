package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/getmedsage/medsage/internal/intervention"
)

// handleListInterventions lists tickets, optionally filtered by status and
// priority query parameters.
func (s *Server) handleListInterventions(w http.ResponseWriter, r *http.Request) {
	status := intervention.Status(r.URL.Query().Get("status"))
	priority := intervention.Priority(r.URL.Query().Get("priority"))

	writeJSON(w, http.StatusOK, map[string]any{
		"interventions": s.interventions.List(status, priority),
	})
}

// handleInterventionReport returns aggregate ticket counts by outcome.
func (s *Server) handleInterventionReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.interventions.Report())
}

func (s *Server) handleGetIntervention(w http.ResponseWriter, r *http.Request) {
	request := s.interventions.Get(r.PathValue("requestID"))
	if request == nil {
		writeError(w, http.StatusNotFound, "intervention not found")
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (s *Server) handleAssignIntervention(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("requestID")

	var body struct {
		Assignee string `json:"assignee"`
	}
	if err := readJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Assignee == "" {
		writeError(w, http.StatusBadRequest, "assignee is required")
		return
	}

	if err := s.interventions.Assign(requestID, body.Assignee); err != nil {
		writeReviewError(w, err)
		return
	}

	s.syncIntervention(r.Context(), requestID)
	writeJSON(w, http.StatusOK, s.interventions.Get(requestID))
}

func (s *Server) handleCommentIntervention(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("requestID")

	var body struct {
		Text     string `json:"text"`
		Reviewer string `json:"reviewer"`
	}
	if err := readJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	reviewer := reviewerName(r, body.Reviewer)
	if reviewer == "" {
		writeError(w, http.StatusBadRequest, "reviewer is required")
		return
	}

	if err := s.interventions.Comment(requestID, body.Text, reviewer); err != nil {
		writeReviewError(w, err)
		return
	}

	s.syncIntervention(r.Context(), requestID)
	writeJSON(w, http.StatusOK, s.interventions.Get(requestID))
}

func (s *Server) handleApproveIntervention(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("requestID")

	var body struct {
		Reviewer string `json:"reviewer"`
		Notes    string `json:"notes"`
	}
	if err := readJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reviewer := reviewerName(r, body.Reviewer)
	if reviewer == "" {
		writeError(w, http.StatusBadRequest, "reviewer is required")
		return
	}

	if err := s.interventions.Approve(requestID, reviewer, body.Notes); err != nil {
		writeReviewError(w, err)
		return
	}

	s.syncIntervention(r.Context(), requestID)
	writeJSON(w, http.StatusOK, s.interventions.Get(requestID))
}

func (s *Server) handleDenyIntervention(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("requestID")

	var body struct {
		Reviewer string `json:"reviewer"`
		Reason   string `json:"reason"`
	}
	if err := readJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required")
		return
	}
	reviewer := reviewerName(r, body.Reviewer)
	if reviewer == "" {
		writeError(w, http.StatusBadRequest, "reviewer is required")
		return
	}

	if err := s.interventions.Deny(requestID, reviewer, body.Reason); err != nil {
		writeReviewError(w, err)
		return
	}

	s.syncIntervention(r.Context(), requestID)
	writeJSON(w, http.StatusOK, s.interventions.Get(requestID))
}

func (s *Server) handleEscalateIntervention(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("requestID")

	var body struct {
		Reason string `json:"reason"`
	}
	if err := readJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required")
		return
	}

	if err := s.interventions.Escalate(requestID, body.Reason); err != nil {
		writeReviewError(w, err)
		return
	}

	s.syncIntervention(r.Context(), requestID)
	writeJSON(w, http.StatusOK, s.interventions.Get(requestID))
}

// syncIntervention mirrors the ticket's current state into the store. The
// manager stays authoritative; a failed write is logged and the audit trail
// catches up on the next change.
func (s *Server) syncIntervention(ctx context.Context, requestID string) {
	request := s.interventions.Get(requestID)
	if request == nil {
		return
	}
	if err := s.store.SaveIntervention(ctx, request); err != nil {
		s.log.Warn("failed to persist intervention", "request_id", requestID, "error", err)
	}
}
