// Package intervention tracks the human review loop around assessments:
// flagging rules, review tickets, structured review documents and the
// multi-level approval chain. All bookkeeping is in memory; the caller
// persists ticket records when durability is needed.
package intervention

import (
	"fmt"
	"time"
)

// Type represents the kind of human intervention required.
type Type string

const (
	TypeReview        Type = "review"
	TypeApproval      Type = "approval"
	TypeClarification Type = "clarification"
	TypeOverride      Type = "override"
	TypeUrgent        Type = "urgent"
)

// Status represents the lifecycle state of an intervention request:
// flagged, then assigned, then approved or denied. Escalation can happen
// from any state and is terminal.
type Status string

const (
	StatusFlagged   Status = "flagged"
	StatusAssigned  Status = "assigned"
	StatusApproved  Status = "approved"
	StatusDenied    Status = "denied"
	StatusEscalated Status = "escalated"
)

// Priority represents how quickly a request needs attention.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Comment is one reviewer note on an intervention request.
type Comment struct {
	Text      string    `json:"text"`
	Reviewer  string    `json:"reviewer"`
	Timestamp time.Time `json:"timestamp"`
}

// Request is a tracked intervention ticket for one assessment.
type Request struct {
	ID           string     `json:"id"`
	AssessmentID string     `json:"assessment_id"`
	Type         Type       `json:"type"`
	Status       Status     `json:"status"`
	Priority     Priority   `json:"priority"`
	Reason       string     `json:"reason"`
	AssignedTo   string     `json:"assigned_to,omitempty"`
	Comments     []Comment  `json:"comments"`
	Decision     string     `json:"decision,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// NotFoundError reports an operation against an unknown record ID.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
