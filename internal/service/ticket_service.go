package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	util "github.com/spec-kit/support-desk/pkg/util"
)

const (
	maxTitleLen         = 200
	maxRequesterNameLen = 120

	// maxCreateAttempts bounds transparent retries when concurrent
	// creations collide on the ticket number.
	maxCreateAttempts = 3
)

// DetailCache caches assembled ticket details between mutations.
type DetailCache interface {
	Get(ctx context.Context, ticketID string) (*domain.TicketDetail, bool)
	Set(ctx context.Context, detail *domain.TicketDetail)
	Invalidate(ctx context.Context, ticketID string)
}

// TicketService orchestrates the ticket lifecycle: every mutation
// authorizes the caller, validates input, and writes the record change
// together with its audit event in one transaction.
type TicketService struct {
	store      repository.Store
	cache      DetailCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Cache      DetailCache
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		store:      deps.Store,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title          string
	Description    string
	RequesterName  string
	RequesterEmail string
}

func (in *TicketCreateInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.RequesterName = strings.TrimSpace(in.RequesterName)
	in.RequesterEmail = strings.TrimSpace(in.RequesterEmail)

	details := map[string]any{}
	if in.Title == "" || len(in.Title) > maxTitleLen {
		details["title"] = "required, at most 200 characters"
	}
	if in.Description == "" {
		details["description"] = "required"
	}
	if in.RequesterName == "" || len(in.RequesterName) > maxRequesterNameLen {
		details["requester_name"] = "required, at most 120 characters"
	}
	if !strings.Contains(in.RequesterEmail, "@") {
		details["requester_email"] = "malformed email"
	}
	if len(details) > 0 {
		return util.NewValidationError("invalid ticket fields", details)
	}
	return nil
}

// TicketListInput describes listing filters before clamping.
type TicketListInput struct {
	Search     string
	Status     *domain.TicketStatus
	AssigneeID *string
	Page       int
	Limit      int
}

// AttachmentInput defines attachment metadata; the bytes already live in
// blob storage under StorageKey.
type AttachmentInput struct {
	FileName   string
	MimeType   string
	StorageKey string
	SizeBytes  int64
}

// Create opens a new ticket. Number assignment conflicts under
// concurrent creation are retried transparently before surfacing.
func (s *TicketService) Create(ctx context.Context, ident *auth.Identity, input TicketCreateInput) (*domain.Ticket, error) {
	if err := ident.Require(auth.CapTicketWrite); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	var (
		created *domain.Ticket
		err     error
	)
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		created, err = s.tryCreate(ctx, ident, input)
		if err == nil {
			break
		}
		if !util.IsConflict(err) {
			return nil, err
		}
		s.logger.Warn("ticket number conflict", zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, created.ID, ident, domain.TicketCreatedPayload{
		Number: created.Number,
		Title:  created.Title,
		Status: created.Status,
	})
	return created, nil
}

func (s *TicketService) tryCreate(ctx context.Context, ident *auth.Identity, input TicketCreateInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		Title:          input.Title,
		Description:    input.Description,
		RequesterName:  input.RequesterName,
		RequesterEmail: input.RequesterEmail,
		Status:         domain.TicketStatusOpen,
	}
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		return tx.Audit().Create(ctx, auditEvent(ticket.ID, ident, domain.TicketCreatedPayload{
			Number: ticket.Number,
			Title:  ticket.Title,
			Status: ticket.Status,
		}))
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// UpdateStatus overwrites the ticket status. Any status may transition
// to any other; the permissive graph is a business rule, not an
// oversight.
func (s *TicketService) UpdateStatus(ctx context.Context, ident *auth.Identity, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if err := ident.Require(auth.CapTicketWrite); err != nil {
		return nil, err
	}
	if !newStatus.Valid() {
		return nil, util.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}

	var updated *domain.Ticket
	var from domain.TicketStatus
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		from = current.Status
		if err := tx.Tickets().UpdateStatus(ctx, ticketID, newStatus); err != nil {
			return err
		}
		if err := tx.Audit().Create(ctx, auditEvent(ticketID, ident, domain.StatusChangedPayload{
			From: from,
			To:   newStatus,
		})); err != nil {
			return err
		}
		updated, err = tx.Tickets().GetByID(ctx, ticketID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ticketID)
	s.publish(ctx, ticketID, ident, domain.StatusChangedPayload{From: from, To: newStatus})
	return updated, nil
}

// UpdateAssignee overwrites the assignee. A non-nil assignee must
// resolve to an existing user before any mutation happens.
func (s *TicketService) UpdateAssignee(ctx context.Context, ident *auth.Identity, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	if err := ident.Require(auth.CapTicketWrite); err != nil {
		return nil, err
	}

	var updated *domain.Ticket
	var from *string
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if assigneeID != nil {
			if _, err := tx.Users().GetByID(ctx, *assigneeID); err != nil {
				if util.IsNotFound(err) {
					return util.NewInvalidAssignee(*assigneeID)
				}
				return err
			}
		}
		from = current.AssigneeID
		if err := tx.Tickets().UpdateAssignee(ctx, ticketID, assigneeID); err != nil {
			return err
		}
		if err := tx.Audit().Create(ctx, auditEvent(ticketID, ident, domain.AssigneeChangedPayload{
			From: from,
			To:   assigneeID,
		})); err != nil {
			return err
		}
		updated, err = tx.Tickets().GetByID(ctx, ticketID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ticketID)
	s.publish(ctx, ticketID, ident, domain.AssigneeChangedPayload{From: from, To: assigneeID})
	return updated, nil
}

// AddMessage appends an internal message to the ticket thread.
func (s *TicketService) AddMessage(ctx context.Context, ident *auth.Identity, ticketID, body string) (*domain.TicketMessage, error) {
	if err := ident.Require(auth.CapTicketWrite); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, util.NewValidationError("message body required", nil)
	}

	msg := &domain.TicketMessage{
		TicketID: ticketID,
		AuthorID: ident.SubjectID,
		Body:     body,
	}
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Tickets().GetByID(ctx, ticketID); err != nil {
			return err
		}
		if err := tx.Messages().Create(ctx, msg); err != nil {
			return err
		}
		return tx.Audit().Create(ctx, auditEvent(ticketID, ident, domain.MessageAddedPayload{
			MessageID:  msg.ID,
			BodyLength: len(body),
		}))
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ticketID)
	s.publish(ctx, ticketID, ident, domain.MessageAddedPayload{MessageID: msg.ID, BodyLength: len(body)})
	return msg, nil
}

// AddAttachment appends attachment metadata to the ticket. The audit
// entry reuses the message_added kind; the persisted kind set is closed.
func (s *TicketService) AddAttachment(ctx context.Context, ident *auth.Identity, ticketID string, input AttachmentInput) (*domain.Attachment, error) {
	if err := ident.Require(auth.CapTicketWrite); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.FileName) == "" || strings.TrimSpace(input.StorageKey) == "" {
		return nil, util.NewValidationError("file_name and storage_key required", nil)
	}
	if input.SizeBytes < 0 {
		return nil, util.NewValidationError("size_bytes must be non-negative", nil)
	}

	attachment := &domain.Attachment{
		TicketID:   ticketID,
		FileName:   input.FileName,
		MimeType:   input.MimeType,
		StorageKey: input.StorageKey,
		SizeBytes:  input.SizeBytes,
	}
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Tickets().GetByID(ctx, ticketID); err != nil {
			return err
		}
		if err := tx.Attachments().Create(ctx, attachment); err != nil {
			return err
		}
		return tx.Audit().Create(ctx, auditEvent(ticketID, ident, domain.MessageAddedPayload{
			AttachmentID: attachment.ID,
			FileName:     attachment.FileName,
			SizeBytes:    attachment.SizeBytes,
		}))
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ticketID)
	s.publish(ctx, ticketID, ident, domain.MessageAddedPayload{
		AttachmentID: attachment.ID,
		FileName:     attachment.FileName,
		SizeBytes:    attachment.SizeBytes,
	})
	return attachment, nil
}

// Get returns the ticket with its message and attachment ledgers ordered
// by creation time ascending.
func (s *TicketService) Get(ctx context.Context, ident *auth.Identity, ticketID string) (*domain.TicketDetail, error) {
	if err := ident.Require(auth.CapTicketRead); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if detail, ok := s.cache.Get(ctx, ticketID); ok {
			return detail, nil
		}
	}

	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.Messages().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	attachments, err := s.store.Attachments().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	detail := &domain.TicketDetail{Ticket: *ticket, Messages: msgs, Attachments: attachments}
	if s.cache != nil {
		s.cache.Set(ctx, detail)
	}
	return detail, nil
}

// List returns one page of tickets ordered by creation time descending,
// plus the total match count.
func (s *TicketService) List(ctx context.Context, ident *auth.Identity, input TicketListInput) ([]domain.Ticket, int, error) {
	if err := ident.Require(auth.CapTicketRead); err != nil {
		return nil, 0, err
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, util.NewValidationError("unknown status", map[string]any{"status": *input.Status})
	}

	filter := repository.TicketFilter{
		Search:     input.Search,
		Status:     input.Status,
		AssigneeID: input.AssigneeID,
		Page:       input.Page,
		Limit:      input.Limit,
	}
	filter.Clamp()
	return s.store.Tickets().List(ctx, filter)
}

// AuditTrail returns all audit events for a ticket, oldest first.
// Admin only.
func (s *TicketService) AuditTrail(ctx context.Context, ident *auth.Identity, ticketID string) ([]domain.AuditEvent, error) {
	if err := ident.Require(auth.CapAuditRead); err != nil {
		return nil, err
	}
	if _, err := s.store.Tickets().GetByID(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.store.Audit().ListByTicket(ctx, ticketID)
}

func (s *TicketService) invalidate(ctx context.Context, ticketID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, ticketID)
	}
}

func (s *TicketService) publish(ctx context.Context, ticketID string, ident *auth.Identity, payload domain.EventPayload) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Kind:      payload.Kind(),
		TicketID:  ticketID,
		ActorID:   actorID(ident),
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func auditEvent(ticketID string, ident *auth.Identity, payload domain.EventPayload) *domain.AuditEvent {
	return &domain.AuditEvent{
		TicketID: ticketID,
		ActorID:  actorID(ident),
		Kind:     payload.Kind(),
		Payload:  payload,
	}
}

func actorID(ident *auth.Identity) *string {
	if ident == nil {
		return nil
	}
	id := ident.SubjectID
	return &id
}
