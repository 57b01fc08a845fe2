package intervention

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/getmedsage/medsage/internal/metrics"
	"github.com/getmedsage/medsage/pkg/models"
)

// DefaultThreshold is the quality score below which an assessment is flagged
// for human review.
const DefaultThreshold = 0.5

// TicketStore persists intervention tickets. Implementations must treat
// SaveIntervention as an upsert keyed by request ID.
type TicketStore interface {
	SaveIntervention(ctx context.Context, ticket *Request) error
}

// Gateway applies the flagging rules to finished assessments and opens
// intervention tickets through the manager. Persistence is best effort: a
// store failure is logged, never surfaced to the assessment flow.
type Gateway struct {
	manager   *Manager
	store     TicketStore
	threshold float64
	log       *slog.Logger
}

// NewGateway creates a gateway over the manager. The store may be nil; a
// non-positive threshold falls back to DefaultThreshold.
func NewGateway(manager *Manager, store TicketStore, threshold float64, log *slog.Logger) *Gateway {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Gateway{manager: manager, store: store, threshold: threshold, log: log}
}

// Threshold returns the quality score cutoff in effect.
func (g *Gateway) Threshold() float64 {
	return g.threshold
}

// Review screens a finished assessment and opens tickets for low quality,
// urgent symptoms and high-risk findings. It returns the IDs of the tickets
// it created, empty when the assessment passes every rule.
func (g *Gateway) Review(ctx context.Context, assessmentID string, state *models.WorkflowState) []string {
	var created []string

	if state.Evaluation != nil {
		if id := g.manager.FlagLowConfidence(assessmentID, state.Evaluation.QualityScore, g.threshold); id != "" {
			metrics.InterventionsTotal.WithLabelValues("low_confidence").Inc()
			created = append(created, id)
		}
	}

	if state.Validation != nil && state.Validation.Urgency.RequiresEmergency {
		id := g.manager.FlagUrgentSymptoms(assessmentID, state.Validation.Urgency.UrgentSymptoms)
		metrics.InterventionsTotal.WithLabelValues("urgent_symptoms").Inc()
		created = append(created, id)
	}

	if risks := riskFactors(state); len(risks) > 0 {
		id := g.manager.FlagHighRisk(assessmentID, risks)
		metrics.InterventionsTotal.WithLabelValues("high_risk").Inc()
		created = append(created, id)
	}

	g.persist(ctx, created)
	if len(created) > 0 {
		g.log.Info("assessment flagged for review",
			"assessment_id", assessmentID, "tickets", created)
	}
	return created
}

// riskFactors collects the deterministic risk signals a reviewer should see:
// contraindicated treatments and failed integrity checks.
func riskFactors(state *models.WorkflowState) []string {
	var risks []string
	for _, t := range state.Treatments {
		if t.Contraindicated {
			risks = append(risks, fmt.Sprintf("contraindicated treatment: %s (%s)",
				t.Recommendation, t.ContraindicationNote))
		}
	}
	if state.Evaluation != nil {
		for _, w := range state.Evaluation.Safety.Warnings {
			risks = append(risks, w.Check+": "+w.Detail)
		}
	}
	return risks
}

func (g *Gateway) persist(ctx context.Context, ids []string) {
	if g.store == nil {
		return
	}
	for _, id := range ids {
		ticket := g.manager.Get(id)
		if ticket == nil {
			continue
		}
		if err := g.store.SaveIntervention(ctx, ticket); err != nil {
			g.log.Warn("failed to persist intervention", "request_id", id, "error", err)
		}
	}
}
