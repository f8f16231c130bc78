package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. The transition
// graph is deliberately unrestricted: any status may move to any other.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "open"
	TicketStatusInProgress      TicketStatus = "in_progress"
	TicketStatusWaitingCustomer TicketStatus = "waiting_customer"
	TicketStatusResolved        TicketStatus = "resolved"
	TicketStatusClosed          TicketStatus = "closed"
)

// Valid reports whether s is one of the five known statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusWaitingCustomer,
		TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// FirstTicketNumber is assigned to the first ticket in an empty store.
const FirstTicketNumber int64 = 1000

// Ticket is the aggregate for support requests. Number is the human-facing
// sequential identifier: assigned once at creation, strictly increasing,
// never reused.
type Ticket struct {
	ID             string
	Number         int64
	Title          string
	Description    string
	RequesterName  string
	RequesterEmail string
	Status         TicketStatus
	AssigneeID     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TicketDetail bundles a ticket with its child ledgers, ordered by
// creation time ascending.
type TicketDetail struct {
	Ticket      Ticket          `json:"ticket"`
	Messages    []TicketMessage `json:"messages"`
	Attachments []Attachment    `json:"attachments"`
}
