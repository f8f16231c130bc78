package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	util "github.com/spec-kit/support-desk/pkg/util"
)

type pgTicketRepository struct {
	q querier
}

// Create persists a new ticket. The sequential number is computed and
// inserted in the same statement; the UNIQUE constraint on number turns
// a concurrent assignment into a Conflict the caller retries.
func (r *pgTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (number, title, description, requester_name, requester_email, status, assignee_user_id)
        VALUES ((SELECT COALESCE(MAX(number), $7 - 1) + 1 FROM tickets), $1, $2, $3, $4, $5, $6)
        RETURNING id, number, created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.RequesterName,
		ticket.RequesterEmail,
		ticket.Status,
		ticket.AssigneeID,
		domain.FirstTicketNumber,
	).Scan(&ticket.ID, &ticket.Number, &ticket.CreatedAt, &ticket.UpdatedAt)
	return pgError(err)
}

func (r *pgTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, number, title, description, requester_name, requester_email, status, assignee_user_id, created_at, updated_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.q.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.Title,
		&ticket.Description,
		&ticket.RequesterName,
		&ticket.RequesterEmail,
		&ticket.Status,
		&ticket.AssigneeID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *pgTicketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	const query = `UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.q.Exec(ctx, query, status, id)
	if err != nil {
		return pgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return util.NewNotFound("ticket", map[string]any{"id": id})
	}
	return nil
}

func (r *pgTicketRepository) UpdateAssignee(ctx context.Context, id string, assigneeID *string) error {
	const query = `UPDATE tickets SET assignee_user_id=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.q.Exec(ctx, query, assigneeID, id)
	if err != nil {
		return pgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return util.NewNotFound("ticket", map[string]any{"id": id})
	}
	return nil
}

// List returns one page ordered by created_at descending plus the total
// match count ignoring pagination.
func (r *pgTicketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	filter.Clamp()

	clauses := []string{"1=1"}
	args := []any{}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_user_id=$%d", len(args)))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tickets WHERE %s", where)
	if err := r.q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
        SELECT id, number, title, description, requester_name, requester_email, status, assignee_user_id, created_at, updated_at
        FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		where, filter.Limit, filter.Offset())

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Number,
			&ticket.Title,
			&ticket.Description,
			&ticket.RequesterName,
			&ticket.RequesterEmail,
			&ticket.Status,
			&ticket.AssigneeID,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, ticket)
	}
	return result, total, rows.Err()
}
