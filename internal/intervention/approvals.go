package intervention

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// approvalChain orders the sign-off levels from lowest to highest.
var approvalChain = []string{"physician", "supervisor", "director"}

// ApprovalRecord is one level's sign-off on an approval request.
type ApprovalRecord struct {
	Level     string    `json:"level"`
	Approver  string    `json:"approver"`
	Notes     string    `json:"notes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RejectionRecord is one level's rejection of an approval request.
type RejectionRecord struct {
	Level     string    `json:"level"`
	Rejector  string    `json:"rejector"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Approval tracks a multi-level sign-off for one assessment. The request is
// fully approved only when every chain level up to the required one has
// signed off; a single rejection at any level is final.
type Approval struct {
	ID              string            `json:"id"`
	AssessmentID    string            `json:"assessment_id"`
	RequiredLevel   string            `json:"required_level"`
	Status          string            `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	Approvals       []ApprovalRecord  `json:"approvals"`
	Rejections      []RejectionRecord `json:"rejections"`
	FinalDecision   string            `json:"final_decision,omitempty"`
	FinalDecisionAt *time.Time        `json:"final_decision_at,omitempty"`
}

// ApprovalManager owns the approval workflow state. Safe for concurrent use.
type ApprovalManager struct {
	mu        sync.RWMutex
	approvals map[string]*Approval
	counter   int
	log       *slog.Logger
}

// NewApprovalManager creates an empty approval manager.
func NewApprovalManager(log *slog.Logger) *ApprovalManager {
	return &ApprovalManager{
		approvals: make(map[string]*Approval),
		log:       log,
	}
}

// Create opens an approval request. An empty required level defaults to
// physician, the lowest chain level.
func (m *ApprovalManager) Create(assessmentID, requiredLevel string) string {
	if requiredLevel == "" {
		requiredLevel = approvalChain[0]
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	id := fmt.Sprintf("APR-%06d", m.counter)

	m.approvals[id] = &Approval{
		ID:            id,
		AssessmentID:  assessmentID,
		RequiredLevel: requiredLevel,
		Status:        "pending",
		CreatedAt:     time.Now().UTC(),
		Approvals:     []ApprovalRecord{},
		Rejections:    []RejectionRecord{},
	}

	m.log.Info("created approval request", "approval_id", id, "required_level", requiredLevel)
	return id
}

// ApproveAt records a sign-off at the given chain level. When every level up
// to the required one has signed off, the request becomes fully_approved;
// until then it is partially_approved.
func (m *ApprovalManager) ApproveAt(approvalID, level, approver, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	approval, ok := m.approvals[approvalID]
	if !ok {
		return &NotFoundError{Kind: "approval", ID: approvalID}
	}

	approval.Approvals = append(approval.Approvals, ApprovalRecord{
		Level:     level,
		Approver:  approver,
		Notes:     notes,
		Timestamp: time.Now().UTC(),
	})

	if chainComplete(approval) {
		now := time.Now().UTC()
		approval.Status = "fully_approved"
		approval.FinalDecision = "approved"
		approval.FinalDecisionAt = &now
		m.log.Info("approval fully approved", "approval_id", approvalID)
	} else {
		approval.Status = "partially_approved"
	}

	m.log.Info("approval recorded", "approval_id", approvalID, "level", level, "approver", approver)
	return nil
}

// RejectAt records a rejection at the given chain level. Any rejection is a
// final decision.
func (m *ApprovalManager) RejectAt(approvalID, level, rejector, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	approval, ok := m.approvals[approvalID]
	if !ok {
		return &NotFoundError{Kind: "approval", ID: approvalID}
	}

	now := time.Now().UTC()
	approval.Rejections = append(approval.Rejections, RejectionRecord{
		Level:     level,
		Rejector:  rejector,
		Reason:    reason,
		Timestamp: now,
	})
	approval.Status = "rejected"
	approval.FinalDecision = "rejected"
	approval.FinalDecisionAt = &now

	m.log.Info("approval rejected", "approval_id", approvalID, "level", level, "rejector", rejector)
	return nil
}

// CanProceed reports whether the assessment behind this request is cleared to
// move forward.
func (m *ApprovalManager) CanProceed(approvalID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	approval, ok := m.approvals[approvalID]
	if !ok {
		return false
	}
	return approval.Status == "fully_approved" && approval.FinalDecision == "approved"
}

// Get returns a copy of the approval request, or nil when the ID is unknown.
func (m *ApprovalManager) Get(approvalID string) *Approval {
	m.mu.RLock()
	defer m.mu.RUnlock()

	approval, ok := m.approvals[approvalID]
	if !ok {
		return nil
	}
	return copyApproval(approval)
}

// chainComplete reports whether every chain level up to the required one has
// at least one sign-off. An unknown required level only needs the lowest
// chain level.
func chainComplete(approval *Approval) bool {
	requiredIndex := slices.Index(approvalChain, approval.RequiredLevel)
	if requiredIndex < 0 {
		requiredIndex = 0
	}

	signed := make(map[string]bool, len(approval.Approvals))
	for _, a := range approval.Approvals {
		signed[a.Level] = true
	}
	for _, level := range approvalChain[:requiredIndex+1] {
		if !signed[level] {
			return false
		}
	}
	return true
}

func copyApproval(a *Approval) *Approval {
	out := *a
	out.Approvals = make([]ApprovalRecord, len(a.Approvals))
	copy(out.Approvals, a.Approvals)
	out.Rejections = make([]RejectionRecord, len(a.Rejections))
	copy(out.Rejections, a.Rejections)
	if a.FinalDecisionAt != nil {
		at := *a.FinalDecisionAt
		out.FinalDecisionAt = &at
	}
	return &out
}
