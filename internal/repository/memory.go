package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-desk/internal/domain"
	util "github.com/spec-kit/support-desk/pkg/util"
)

// memoryState holds all records by value so a transaction snapshot is a
// plain map copy.
type memoryState struct {
	users       map[string]domain.User
	tickets     map[string]domain.Ticket
	messages    map[string][]domain.TicketMessage
	attachments map[string][]domain.Attachment
	events      map[string][]domain.AuditEvent
	nextNumber  int64
}

func newMemoryState() *memoryState {
	return &memoryState{
		users:       make(map[string]domain.User),
		tickets:     make(map[string]domain.Ticket),
		messages:    make(map[string][]domain.TicketMessage),
		attachments: make(map[string][]domain.Attachment),
		events:      make(map[string][]domain.AuditEvent),
		nextNumber:  domain.FirstTicketNumber,
	}
}

func (s *memoryState) clone() *memoryState {
	next := &memoryState{
		users:       make(map[string]domain.User, len(s.users)),
		tickets:     make(map[string]domain.Ticket, len(s.tickets)),
		messages:    make(map[string][]domain.TicketMessage, len(s.messages)),
		attachments: make(map[string][]domain.Attachment, len(s.attachments)),
		events:      make(map[string][]domain.AuditEvent, len(s.events)),
		nextNumber:  s.nextNumber,
	}
	for k, v := range s.users {
		next.users[k] = v
	}
	for k, v := range s.tickets {
		next.tickets[k] = v
	}
	for k, v := range s.messages {
		next.messages[k] = append([]domain.TicketMessage(nil), v...)
	}
	for k, v := range s.attachments {
		next.attachments[k] = append([]domain.Attachment(nil), v...)
	}
	for k, v := range s.events {
		next.events[k] = append([]domain.AuditEvent(nil), v...)
	}
	return next
}

// MemoryStore is an in-memory Store used by tests and local development.
// All access is serialized by one mutex, which also makes ticket number
// assignment race-free. Transactions run against a snapshot that is
// swapped in on success and discarded on error.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
	inTx  bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

func (s *MemoryStore) lock() {
	if !s.inTx {
		s.mu.Lock()
	}
}

func (s *MemoryStore) unlock() {
	if !s.inTx {
		s.mu.Unlock()
	}
}

func (s *MemoryStore) Tickets() TicketRepository         { return &memTicketRepository{s: s} }
func (s *MemoryStore) Users() UserRepository             { return &memUserRepository{s: s} }
func (s *MemoryStore) Messages() MessageRepository       { return &memMessageRepository{s: s} }
func (s *MemoryStore) Attachments() AttachmentRepository { return &memAttachmentRepository{s: s} }
func (s *MemoryStore) Audit() AuditRepository            { return &memAuditRepository{s: s} }

// WithinTx clones the state, runs fn against the clone, and swaps it in
// only when fn succeeds. Nested calls join the outer transaction.
func (s *MemoryStore) WithinTx(_ context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	tx := &MemoryStore{state: snapshot, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = snapshot
	return nil
}

type memTicketRepository struct {
	s *MemoryStore
}

func (r *memTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.lock()
	defer r.s.unlock()

	now := time.Now().UTC()
	ticket.ID = uuid.NewString()
	ticket.Number = r.s.state.nextNumber
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.s.state.nextNumber++
	r.s.state.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.lock()
	defer r.s.unlock()

	ticket, ok := r.s.state.tickets[id]
	if !ok {
		return nil, util.NewNotFound("ticket", map[string]any{"id": id})
	}
	return &ticket, nil
}

func (r *memTicketRepository) UpdateStatus(_ context.Context, id string, status domain.TicketStatus) error {
	r.s.lock()
	defer r.s.unlock()

	ticket, ok := r.s.state.tickets[id]
	if !ok {
		return util.NewNotFound("ticket", map[string]any{"id": id})
	}
	ticket.Status = status
	ticket.UpdatedAt = time.Now().UTC()
	r.s.state.tickets[id] = ticket
	return nil
}

func (r *memTicketRepository) UpdateAssignee(_ context.Context, id string, assigneeID *string) error {
	r.s.lock()
	defer r.s.unlock()

	ticket, ok := r.s.state.tickets[id]
	if !ok {
		return util.NewNotFound("ticket", map[string]any{"id": id})
	}
	ticket.AssigneeID = assigneeID
	ticket.UpdatedAt = time.Now().UTC()
	r.s.state.tickets[id] = ticket
	return nil
}

func (r *memTicketRepository) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	filter.Clamp()

	r.s.lock()
	defer r.s.unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matches []domain.Ticket
	for _, ticket := range r.s.state.tickets {
		if search != "" &&
			!strings.Contains(strings.ToLower(ticket.Title), search) &&
			!strings.Contains(strings.ToLower(ticket.Description), search) {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *filter.AssigneeID) {
			continue
		}
		matches = append(matches, ticket)
	}

	// created_at descending; number breaks ties for sub-millisecond creates
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].Number > matches[j].Number
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := len(matches)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

type memUserRepository struct {
	s *MemoryStore
}

func (r *memUserRepository) Create(_ context.Context, user *domain.User) error {
	r.s.lock()
	defer r.s.unlock()

	for _, existing := range r.s.state.users {
		if existing.Email == user.Email {
			return util.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	r.s.state.users[user.ID] = *user
	return nil
}

func (r *memUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.lock()
	defer r.s.unlock()

	user, ok := r.s.state.users[id]
	if !ok {
		return nil, util.NewNotFound("user", nil)
	}
	return &user, nil
}

func (r *memUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, user := range r.s.state.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, util.NewNotFound("user", nil)
}

func (r *memUserRepository) List(_ context.Context) ([]domain.User, error) {
	r.s.lock()
	defer r.s.unlock()

	result := make([]domain.User, 0, len(r.s.state.users))
	for _, user := range r.s.state.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type memMessageRepository struct {
	s *MemoryStore
}

func (r *memMessageRepository) Create(_ context.Context, msg *domain.TicketMessage) error {
	r.s.lock()
	defer r.s.unlock()

	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now().UTC()
	r.s.state.messages[msg.TicketID] = append(r.s.state.messages[msg.TicketID], *msg)
	return nil
}

func (r *memMessageRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketMessage, error) {
	r.s.lock()
	defer r.s.unlock()

	return append([]domain.TicketMessage(nil), r.s.state.messages[ticketID]...), nil
}

type memAttachmentRepository struct {
	s *MemoryStore
}

func (r *memAttachmentRepository) Create(_ context.Context, attachment *domain.Attachment) error {
	r.s.lock()
	defer r.s.unlock()

	attachment.ID = uuid.NewString()
	attachment.CreatedAt = time.Now().UTC()
	r.s.state.attachments[attachment.TicketID] = append(r.s.state.attachments[attachment.TicketID], *attachment)
	return nil
}

func (r *memAttachmentRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	r.s.lock()
	defer r.s.unlock()

	return append([]domain.Attachment(nil), r.s.state.attachments[ticketID]...), nil
}

type memAuditRepository struct {
	s *MemoryStore
}

func (r *memAuditRepository) Create(_ context.Context, event *domain.AuditEvent) error {
	r.s.lock()
	defer r.s.unlock()

	event.ID = uuid.NewString()
	event.CreatedAt = time.Now().UTC()
	r.s.state.events[event.TicketID] = append(r.s.state.events[event.TicketID], *event)
	return nil
}

func (r *memAuditRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.AuditEvent, error) {
	r.s.lock()
	defer r.s.unlock()

	return append([]domain.AuditEvent(nil), r.s.state.events[ticketID]...), nil
}
