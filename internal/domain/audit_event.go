package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind enumerates audit event identifiers. These values are the
// persisted contract read by other tooling and must not be renamed
// without a migration story.
type EventKind string

const (
	EventTicketCreated   EventKind = "ticket_created"
	EventStatusChanged   EventKind = "status_changed"
	EventAssigneeChanged EventKind = "assignee_changed"
	EventMessageAdded    EventKind = "message_added"
)

// EventKinds lists all known kinds.
func EventKinds() []EventKind {
	return []EventKind{EventTicketCreated, EventStatusChanged, EventAssigneeChanged, EventMessageAdded}
}

// EventPayload is implemented by the per-kind payload variants. Each
// variant carries its own before/after fields; the serialized shape at
// the storage boundary stays a flat JSON object.
type EventPayload interface {
	Kind() EventKind
}

// TicketCreatedPayload captures the initial state of a new ticket.
type TicketCreatedPayload struct {
	Number int64        `json:"number"`
	Title  string       `json:"title"`
	Status TicketStatus `json:"status"`
}

func (TicketCreatedPayload) Kind() EventKind { return EventTicketCreated }

// StatusChangedPayload records a status overwrite.
type StatusChangedPayload struct {
	From TicketStatus `json:"from"`
	To   TicketStatus `json:"to"`
}

func (StatusChangedPayload) Kind() EventKind { return EventStatusChanged }

// AssigneeChangedPayload records an assignee overwrite. Nil means
// unassigned on that side of the change.
type AssigneeChangedPayload struct {
	From *string `json:"from"`
	To   *string `json:"to"`
}

func (AssigneeChangedPayload) Kind() EventKind { return EventAssigneeChanged }

// MessageAddedPayload records an appended message or attachment.
// Attachment appends reuse this kind with the attachment fields set,
// keeping the persisted kind set closed.
type MessageAddedPayload struct {
	MessageID    string `json:"message_id,omitempty"`
	BodyLength   int    `json:"body_length,omitempty"`
	AttachmentID string `json:"attachment_id,omitempty"`
	FileName     string `json:"file_name,omitempty"`
	SizeBytes    int64  `json:"size_bytes,omitempty"`
}

func (MessageAddedPayload) Kind() EventKind { return EventMessageAdded }

// AuditEvent is an immutable record of one state change to a ticket.
// ActorID is nullable: system-attributed transitions carry no actor.
type AuditEvent struct {
	ID        string
	TicketID  string
	ActorID   *string
	Kind      EventKind
	Payload   EventPayload
	CreatedAt time.Time
}

// DecodePayload unmarshals a stored payload into the variant for kind.
func DecodePayload(kind EventKind, raw []byte) (EventPayload, error) {
	switch kind {
	case EventTicketCreated:
		var p TicketCreatedPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case EventStatusChanged:
		var p StatusChangedPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case EventAssigneeChanged:
		var p AssigneeChangedPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case EventMessageAdded:
		var p MessageAddedPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown audit event kind %q", kind)
}
