package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/getmedsage/medsage/internal/auth"
)

// handleCreateApproval opens a multi-level approval for an assessment.
func (s *Server) handleCreateApproval(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AssessmentID  string `json:"assessment_id"`
		RequiredLevel string `json:"required_level"`
	}
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.AssessmentID == "" {
		writeError(w, http.StatusBadRequest, "assessment_id is required")
		return
	}

	approvalID := s.approvals.Create(body.AssessmentID, body.RequiredLevel)
	writeJSON(w, http.StatusCreated, s.approvals.Get(approvalID))
}

func (s *Server) handleGetApproval(w http.ResponseWriter, r *http.Request) {
	approvalID := r.PathValue("approvalID")

	approval := s.approvals.Get(approvalID)
	if approval == nil {
		writeError(w, http.StatusNotFound, "approval not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"approval":    approval,
		"can_proceed": s.approvals.CanProceed(approvalID),
	})
}

// handleApproveApproval records a sign-off at one chain level. The level
// defaults to the authenticated staff member's role.
func (s *Server) handleApproveApproval(w http.ResponseWriter, r *http.Request) {
	approvalID := r.PathValue("approvalID")

	var body struct {
		Level    string `json:"level"`
		Approver string `json:"approver"`
		Notes    string `json:"notes"`
	}
	if err := readJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	level := body.Level
	if level == "" {
		level = auth.Role(r.Context())
	}
	if level == "" {
		writeError(w, http.StatusBadRequest, "level is required")
		return
	}
	approver := reviewerName(r, body.Approver)
	if approver == "" {
		writeError(w, http.StatusBadRequest, "approver is required")
		return
	}

	if err := s.approvals.ApproveAt(approvalID, level, approver, body.Notes); err != nil {
		writeReviewError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"approval":    s.approvals.Get(approvalID),
		"can_proceed": s.approvals.CanProceed(approvalID),
	})
}

// handleRejectApproval records a rejection, which is final at any level.
func (s *Server) handleRejectApproval(w http.ResponseWriter, r *http.Request) {
	approvalID := r.PathValue("approvalID")

	var body struct {
		Level    string `json:"level"`
		Rejector string `json:"rejector"`
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

	level := body.Level
	if level == "" {
		level = auth.Role(r.Context())
	}
	if level == "" {
		writeError(w, http.StatusBadRequest, "level is required")
		return
	}
	rejector := reviewerName(r, body.Rejector)
	if rejector == "" {
		writeError(w, http.StatusBadRequest, "rejector is required")
		return
	}

	if err := s.approvals.RejectAt(approvalID, level, rejector, body.Reason); err != nil {
		writeReviewError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"approval":    s.approvals.Get(approvalID),
		"can_proceed": s.approvals.CanProceed(approvalID),
	})
}
