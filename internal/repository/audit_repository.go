package repository

import (
	"context"
	"encoding/json"

	"github.com/spec-kit/support-desk/internal/domain"
)

type pgAuditRepository struct {
	q querier
}

// Create stages an audit event on the current transaction. Payload
// variants serialize to a flat JSON object in the payload column.
func (r *pgAuditRepository) Create(ctx context.Context, event *domain.AuditEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO audit_events (ticket_id, actor_user_id, kind, payload)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	err = r.q.QueryRow(ctx, query,
		event.TicketID,
		event.ActorID,
		event.Kind,
		payload,
	).Scan(&event.ID, &event.CreatedAt)
	return pgError(err)
}

func (r *pgAuditRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditEvent, error) {
	const query = `
        SELECT id, ticket_id, actor_user_id, kind, payload, created_at
        FROM audit_events WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		var raw []byte
		if err := rows.Scan(
			&event.ID,
			&event.TicketID,
			&event.ActorID,
			&event.Kind,
			&raw,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		payload, err := domain.DecodePayload(event.Kind, raw)
		if err != nil {
			return nil, err
		}
		event.Payload = payload
		result = append(result, event)
	}
	return result, rows.Err()
}
