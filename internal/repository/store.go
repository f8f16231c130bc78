package repository

import (
	"context"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TicketFilter captures list parameters. Clamp must be applied before
// querying.
type TicketFilter struct {
	Search     string
	Status     *domain.TicketStatus
	AssigneeID *string
	Page       int
	Limit      int
}

// Clamp normalizes pagination: page >= 1, limit within [1,100].
func (f *TicketFilter) Clamp() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 1
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// Offset returns the row offset for the clamped page.
func (f TicketFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// TicketRepository encapsulates ticket persistence. Create assigns the
// id, the sequential number, and both timestamps.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error
	UpdateAssignee(ctx context.Context, id string, assigneeID *string) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
}

// UserRepository defines persistence access for operators.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// MessageRepository manages the append-only message ledger of a ticket.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.TicketMessage) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error)
}

// AttachmentRepository manages the append-only attachment ledger.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
}

// AuditRepository stages immutable audit events. Create never commits on
// its own; durability is decided by the enclosing transaction.
type AuditRepository interface {
	Create(ctx context.Context, event *domain.AuditEvent) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditEvent, error)
}

// Store aggregates the repositories behind one transactional boundary.
// WithinTx runs fn against a store whose writes commit or roll back as a
// single unit; a mutation and its audit event always share fate.
type Store interface {
	Tickets() TicketRepository
	Users() UserRepository
	Messages() MessageRepository
	Attachments() AttachmentRepository
	Audit() AuditRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
