package database

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/getmedsage/medsage/internal/intervention"
)

const interventionColumns = `request_id, assessment_id, type, status, priority, reason, assigned_to, comments, decision, created_at, resolved_at`

// SaveIntervention upserts an intervention ticket keyed by its request ID.
// The in-memory manager stays the source of truth; rows here are the durable
// audit trail.
func (db *DB) SaveIntervention(ctx context.Context, ticket *intervention.Request) error {
	comments := ticket.Comments
	if comments == nil {
		comments = []intervention.Comment{}
	}
	commentsJSON, err := json.Marshal(comments)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO interventions (request_id, assessment_id, type, status, priority, reason, assigned_to, comments, decision, created_at, resolved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (request_id) DO UPDATE SET
		   status = EXCLUDED.status,
		   priority = EXCLUDED.priority,
		   assigned_to = EXCLUDED.assigned_to,
		   comments = EXCLUDED.comments,
		   decision = EXCLUDED.decision,
		   resolved_at = EXCLUDED.resolved_at`,
		ticket.ID, ticket.AssessmentID, string(ticket.Type), string(ticket.Status),
		string(ticket.Priority), ticket.Reason, ticket.AssignedTo, commentsJSON,
		ticket.Decision, ticket.CreatedAt, ticket.ResolvedAt,
	)
	return err
}

// ListInterventions returns the persisted tickets for an assessment in
// creation order.
func (db *DB) ListInterventions(ctx context.Context, assessmentID string) ([]intervention.Request, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+interventionColumns+` FROM interventions
		 WHERE assessment_id = $1
		 ORDER BY created_at, request_id`,
		assessmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []intervention.Request
	for rows.Next() {
		ticket, err := scanIntervention(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

func scanIntervention(row pgx.Row) (*intervention.Request, error) {
	var t intervention.Request
	var typ, status, priority string
	var commentsJSON []byte
	err := row.Scan(
		&t.ID, &t.AssessmentID, &typ, &status, &priority, &t.Reason,
		&t.AssignedTo, &commentsJSON, &t.Decision, &t.CreatedAt, &t.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Type = intervention.Type(typ)
	t.Status = intervention.Status(status)
	t.Priority = intervention.Priority(priority)
	if err := json.Unmarshal(commentsJSON, &t.Comments); err != nil {
		return nil, err
	}
	return &t, nil
}
