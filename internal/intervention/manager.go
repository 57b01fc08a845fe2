package intervention

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/getmedsage/medsage/pkg/models"
)

// Manager owns the intervention ticket state machine. Safe for concurrent
// use; tickets are returned as copies so callers never share internals.
type Manager struct {
	mu      sync.RWMutex
	tickets map[string]*Request
	order   []string
	counter int
	log     *slog.Logger
}

// NewManager creates an empty intervention manager.
func NewManager(log *slog.Logger) *Manager {
	return &Manager{
		tickets: make(map[string]*Request),
		log:     log,
	}
}

// Create opens a new intervention request and returns its generated ID.
func (m *Manager) Create(assessmentID string, t Type, reason string, priority Priority) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	id := fmt.Sprintf("INT-%06d", m.counter)

	m.tickets[id] = &Request{
		ID:           id,
		AssessmentID: assessmentID,
		Type:         t,
		Status:       StatusFlagged,
		Priority:     priority,
		Reason:       reason,
		Comments:     []Comment{},
		CreatedAt:    time.Now().UTC(),
	}
	m.order = append(m.order, id)

	m.log.Info("created intervention request", "request_id", id, "type", t, "priority", priority)
	return id
}

// FlagLowConfidence opens a review ticket when the score falls below the
// threshold. Above the threshold it returns an empty ID and no ticket.
func (m *Manager) FlagLowConfidence(assessmentID string, score, threshold float64) string {
	if score >= threshold {
		return ""
	}
	reason := fmt.Sprintf("Low confidence assessment (score: %s, threshold: %s)",
		models.FormatConfidence(score), models.FormatConfidence(threshold))
	return m.Create(assessmentID, TypeReview, reason, PriorityNormal)
}

// FlagHighRisk opens a high-priority review ticket for the named risk factors.
func (m *Manager) FlagHighRisk(assessmentID string, riskFactors []string) string {
	reason := "High-risk assessment identified. Risk factors: " + strings.Join(riskFactors, ", ")
	return m.Create(assessmentID, TypeReview, reason, PriorityHigh)
}

// FlagContradictoryDiagnoses opens a clarification ticket naming the
// conflicting diagnoses.
func (m *Manager) FlagContradictoryDiagnoses(assessmentID string, conflicting []string) string {
	reason := "Contradictory diagnoses detected: " + strings.Join(conflicting, ", ")
	return m.Create(assessmentID, TypeClarification, reason, PriorityHigh)
}

// FlagUrgentSymptoms opens an urgent ticket for symptoms that need immediate
// attention.
func (m *Manager) FlagUrgentSymptoms(assessmentID string, urgentSymptoms []string) string {
	reason := fmt.Sprintf("Urgent symptoms detected: %s. Immediate medical attention required.",
		strings.Join(urgentSymptoms, ", "))
	return m.Create(assessmentID, TypeUrgent, reason, PriorityUrgent)
}

// Assign hands the request to a single reviewer and moves it to assigned.
func (m *Manager) Assign(requestID, assignee string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ticket, ok := m.tickets[requestID]
	if !ok {
		return &NotFoundError{Kind: "intervention", ID: requestID}
	}
	ticket.AssignedTo = assignee
	ticket.Status = StatusAssigned

	m.log.Info("assigned intervention", "request_id", requestID, "assignee", assignee)
	return nil
}

// Comment appends a reviewer note to the request.
func (m *Manager) Comment(requestID, text, reviewer string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.comment(requestID, text, reviewer)
}

// comment requires m.mu to be held.
func (m *Manager) comment(requestID, text, reviewer string) error {
	ticket, ok := m.tickets[requestID]
	if !ok {
		return &NotFoundError{Kind: "intervention", ID: requestID}
	}
	ticket.Comments = append(ticket.Comments, Comment{
		Text:      text,
		Reviewer:  reviewer,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// Approve resolves the request as approved. Notes, when given, are kept as a
// comment so the audit trail stays on the ticket.
func (m *Manager) Approve(requestID, reviewer, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ticket, ok := m.tickets[requestID]
	if !ok {
		return &NotFoundError{Kind: "intervention", ID: requestID}
	}
	now := time.Now().UTC()
	ticket.Status = StatusApproved
	ticket.Decision = "approved"
	ticket.ResolvedAt = &now
	if notes != "" {
		_ = m.comment(requestID, "Approval notes: "+notes, reviewer)
	}

	m.log.Info("approved intervention", "request_id", requestID, "reviewer", reviewer)
	return nil
}

// Deny resolves the request as denied, recording the reason as a comment.
func (m *Manager) Deny(requestID, reviewer, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ticket, ok := m.tickets[requestID]
	if !ok {
		return &NotFoundError{Kind: "intervention", ID: requestID}
	}
	now := time.Now().UTC()
	ticket.Status = StatusDenied
	ticket.Decision = "denied"
	ticket.ResolvedAt = &now
	_ = m.comment(requestID, "Denial reason: "+reason, reviewer)

	m.log.Info("denied intervention", "request_id", requestID, "reviewer", reviewer)
	return nil
}

// Escalate raises the request to urgent priority and marks it escalated.
func (m *Manager) Escalate(requestID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ticket, ok := m.tickets[requestID]
	if !ok {
		return &NotFoundError{Kind: "intervention", ID: requestID}
	}
	ticket.Status = StatusEscalated
	ticket.Priority = PriorityUrgent
	_ = m.comment(requestID, "Escalated: "+reason, "SYSTEM")

	m.log.Info("escalated intervention", "request_id", requestID)
	return nil
}

// Get returns a copy of the request, or nil when the ID is unknown.
func (m *Manager) Get(requestID string) *Request {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ticket, ok := m.tickets[requestID]
	if !ok {
		return nil
	}
	return copyRequest(ticket)
}

// Flagged returns unassigned requests in creation order, optionally filtered
// by priority.
func (m *Manager) Flagged(priority Priority) []Request {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var flagged []Request
	for _, id := range m.order {
		ticket := m.tickets[id]
		if ticket.Status != StatusFlagged {
			continue
		}
		if priority != "" && ticket.Priority != priority {
			continue
		}
		flagged = append(flagged, *copyRequest(ticket))
	}
	return flagged
}

// Urgent returns unassigned requests at urgent priority.
func (m *Manager) Urgent() []Request {
	return m.Flagged(PriorityUrgent)
}

// List returns every ticket in creation order, optionally filtered by status
// and priority.
func (m *Manager) List(status Status, priority Priority) []Request {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Request
	for _, id := range m.order {
		ticket := m.tickets[id]
		if status != "" && ticket.Status != status {
			continue
		}
		if priority != "" && ticket.Priority != priority {
			continue
		}
		out = append(out, *copyRequest(ticket))
	}
	return out
}

// Report aggregates ticket counts by outcome.
type Report struct {
	Total     int       `json:"total_interventions"`
	Flagged   int       `json:"flagged"`
	Urgent    int       `json:"urgent"`
	Approved  int       `json:"approved"`
	Denied    int       `json:"denied"`
	Escalated int       `json:"escalated"`
	Tickets   []Request `json:"interventions"`
}

// Report summarizes every ticket the manager has seen.
func (m *Manager) Report() Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report := Report{Tickets: make([]Request, 0, len(m.order))}
	for _, id := range m.order {
		ticket := m.tickets[id]
		report.Total++
		switch ticket.Status {
		case StatusFlagged:
			report.Flagged++
			if ticket.Priority == PriorityUrgent {
				report.Urgent++
			}
		case StatusApproved:
			report.Approved++
		case StatusDenied:
			report.Denied++
		case StatusEscalated:
			report.Escalated++
		}
		report.Tickets = append(report.Tickets, *copyRequest(ticket))
	}
	return report
}

func copyRequest(t *Request) *Request {
	out := *t
	out.Comments = make([]Comment, len(t.Comments))
	copy(out.Comments, t.Comments)
	if t.ResolvedAt != nil {
		resolved := *t.ResolvedAt
		out.ResolvedAt = &resolved
	}
	return &out
}
