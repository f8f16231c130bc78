package repository

import (
	"context"

	"github.com/spec-kit/support-desk/internal/domain"
)

type pgAttachmentRepository struct {
	q querier
}

func (r *pgAttachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (ticket_id, file_name, mime_type, storage_key, size_bytes)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`
	err := r.q.QueryRow(ctx, query,
		attachment.TicketID,
		attachment.FileName,
		attachment.MimeType,
		attachment.StorageKey,
		attachment.SizeBytes,
	).Scan(&attachment.ID, &attachment.CreatedAt)
	return pgError(err)
}

func (r *pgAttachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, file_name, mime_type, storage_key, size_bytes, created_at
        FROM attachments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TicketID,
			&attachment.FileName,
			&attachment.MimeType,
			&attachment.StorageKey,
			&attachment.SizeBytes,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}
