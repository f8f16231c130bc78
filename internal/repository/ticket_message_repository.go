package repository

import (
	"context"

	"github.com/spec-kit/support-desk/internal/domain"
)

type pgMessageRepository struct {
	q querier
}

func (r *pgMessageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	const query = `
        INSERT INTO ticket_messages (ticket_id, author_user_id, body)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	err := r.q.QueryRow(ctx, query,
		msg.TicketID,
		msg.AuthorID,
		msg.Body,
	).Scan(&msg.ID, &msg.CreatedAt)
	return pgError(err)
}

func (r *pgMessageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	const query = `
        SELECT id, ticket_id, author_user_id, body, created_at
        FROM ticket_messages WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketMessage
	for rows.Next() {
		var msg domain.TicketMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.AuthorID,
			&msg.Body,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
