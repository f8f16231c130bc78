package domain

import "time"

// TicketMessage is an append-only internal note on a ticket thread.
// Messages are never edited or deleted once committed.
type TicketMessage struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}
