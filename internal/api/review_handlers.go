package api

import (
	"errors"
	"io"
	"net/http"
)

// handleCreateReview opens a structured review of an intervention ticket.
func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("requestID")
	if s.interventions.Get(requestID) == nil {
		writeError(w, http.StatusNotFound, "intervention not found")
		return
	}

	var body struct {
		Reviewer string `json:"reviewer"`
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

	reviewID := s.reviews.Create(requestID, reviewer)
	writeJSON(w, http.StatusCreated, s.reviews.Get(reviewID))
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	review := s.reviews.Get(r.PathValue("reviewID"))
	if review == nil {
		writeError(w, http.StatusNotFound, "review not found")
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (s *Server) handleAddFinding(w http.ResponseWriter, r *http.Request) {
	reviewID := r.PathValue("reviewID")

	var body struct {
		Text     string `json:"text"`
		Severity string `json:"severity"`
	}
	if err := readJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	if err := s.reviews.AddFinding(reviewID, body.Text, body.Severity); err != nil {
		writeReviewError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.reviews.Get(reviewID))
}

func (s *Server) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	reviewID := r.PathValue("reviewID")

	var body struct {
		Text  string `json:"text"`
		Field string `json:"field"`
	}
	if err := readJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	if err := s.reviews.AddQuestion(reviewID, body.Text, body.Field); err != nil {
		writeReviewError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.reviews.Get(reviewID))
}

func (s *Server) handleAddRecommendation(w http.ResponseWriter, r *http.Request) {
	reviewID := r.PathValue("reviewID")

	var body struct {
		Text       string `json:"text"`
		ActionType string `json:"action_type"`
	}
	if err := readJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	if err := s.reviews.AddRecommendation(reviewID, body.Text, body.ActionType); err != nil {
		writeReviewError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.reviews.Get(reviewID))
}

// handleCompleteReview closes the review and returns its summary rollup.
func (s *Server) handleCompleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID := r.PathValue("reviewID")

	if err := s.reviews.Complete(reviewID); err != nil {
		writeReviewError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.reviews.Summary(reviewID))
}
