package intervention

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Finding is one observation recorded during a review. Severity is one of
// low, normal, high, critical.
type Finding struct {
	Text      string    `json:"text"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// Question is an open question a reviewer raised about the assessment.
type Question struct {
	Text      string    `json:"text"`
	Field     string    `json:"field,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Recommendation is a follow-up action proposed by the reviewer.
type Recommendation struct {
	Text       string    `json:"text"`
	ActionType string    `json:"action_type"`
	Timestamp  time.Time `json:"timestamp"`
}

// Review is a structured review document attached to an intervention.
type Review struct {
	ID              string           `json:"id"`
	InterventionID  string           `json:"intervention_id"`
	Reviewer        string           `json:"reviewer"`
	CreatedAt       time.Time        `json:"created_at"`
	Findings        []Finding        `json:"findings"`
	Questions       []Question       `json:"questions"`
	Recommendations []Recommendation `json:"recommendations"`
	Status          string           `json:"status"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
}

// ReviewSummary rolls up the counts of a single review.
type ReviewSummary struct {
	ReviewID             string     `json:"review_id"`
	Reviewer             string     `json:"reviewer"`
	Status               string     `json:"status"`
	TotalFindings        int        `json:"total_findings"`
	CriticalFindings     int        `json:"critical_findings"`
	HighFindings         int        `json:"high_findings"`
	TotalQuestions       int        `json:"total_questions"`
	TotalRecommendations int        `json:"total_recommendations"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}

// ReviewHandler owns review documents. Safe for concurrent use.
type ReviewHandler struct {
	mu      sync.RWMutex
	reviews map[string]*Review
	counter int
	log     *slog.Logger
}

// NewReviewHandler creates an empty review handler.
func NewReviewHandler(log *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: make(map[string]*Review),
		log:     log,
	}
}

// Create opens a review for an intervention and returns its generated ID.
func (h *ReviewHandler) Create(interventionID, reviewer string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.counter++
	id := fmt.Sprintf("REV-%06d", h.counter)

	h.reviews[id] = &Review{
		ID:              id,
		InterventionID:  interventionID,
		Reviewer:        reviewer,
		CreatedAt:       time.Now().UTC(),
		Findings:        []Finding{},
		Questions:       []Question{},
		Recommendations: []Recommendation{},
		Status:          "in_progress",
	}

	h.log.Info("created review", "review_id", id, "intervention_id", interventionID)
	return id
}

// AddFinding records an observation. An empty severity defaults to normal.
func (h *ReviewHandler) AddFinding(reviewID, text, severity string) error {
	if severity == "" {
		severity = "normal"
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	review, ok := h.reviews[reviewID]
	if !ok {
		return &NotFoundError{Kind: "review", ID: reviewID}
	}
	review.Findings = append(review.Findings, Finding{
		Text:      text,
		Severity:  severity,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// AddQuestion records an open question, optionally tied to one field of the
// assessment.
func (h *ReviewHandler) AddQuestion(reviewID, text, field string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	review, ok := h.reviews[reviewID]
	if !ok {
		return &NotFoundError{Kind: "review", ID: reviewID}
	}
	review.Questions = append(review.Questions, Question{
		Text:      text,
		Field:     field,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// AddRecommendation records a proposed follow-up action. An empty action type
// defaults to follow_up.
func (h *ReviewHandler) AddRecommendation(reviewID, text, actionType string) error {
	if actionType == "" {
		actionType = "follow_up"
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	review, ok := h.reviews[reviewID]
	if !ok {
		return &NotFoundError{Kind: "review", ID: reviewID}
	}
	review.Recommendations = append(review.Recommendations, Recommendation{
		Text:       text,
		ActionType: actionType,
		Timestamp:  time.Now().UTC(),
	})
	return nil
}

// Complete marks the review finished.
func (h *ReviewHandler) Complete(reviewID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	review, ok := h.reviews[reviewID]
	if !ok {
		return &NotFoundError{Kind: "review", ID: reviewID}
	}
	now := time.Now().UTC()
	review.Status = "completed"
	review.CompletedAt = &now

	h.log.Info("completed review", "review_id", reviewID)
	return nil
}

// Get returns a copy of the review, or nil when the ID is unknown.
func (h *ReviewHandler) Get(reviewID string) *Review {
	h.mu.RLock()
	defer h.mu.RUnlock()

	review, ok := h.reviews[reviewID]
	if !ok {
		return nil
	}
	return copyReview(review)
}

// Summary returns the count rollup for a review, or nil when the ID is
// unknown.
func (h *ReviewHandler) Summary(reviewID string) *ReviewSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()

	review, ok := h.reviews[reviewID]
	if !ok {
		return nil
	}

	summary := &ReviewSummary{
		ReviewID:             review.ID,
		Reviewer:             review.Reviewer,
		Status:               review.Status,
		TotalFindings:        len(review.Findings),
		TotalQuestions:       len(review.Questions),
		TotalRecommendations: len(review.Recommendations),
		CompletedAt:          review.CompletedAt,
	}
	for _, f := range review.Findings {
		switch f.Severity {
		case "critical":
			summary.CriticalFindings++
		case "high":
			summary.HighFindings++
		}
	}
	return summary
}

func copyReview(r *Review) *Review {
	out := *r
	out.Findings = make([]Finding, len(r.Findings))
	copy(out.Findings, r.Findings)
	out.Questions = make([]Question, len(r.Questions))
	copy(out.Questions, r.Questions)
	out.Recommendations = make([]Recommendation, len(r.Recommendations))
	copy(out.Recommendations, r.Recommendations)
	if r.CompletedAt != nil {
		completed := *r.CompletedAt
		out.CompletedAt = &completed
	}
	return &out
}
