package events

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// Event is emitted after a mutation and its audit record have committed.
// It mirrors the persisted audit event: same kind, same typed payload.
type Event struct {
	ID        string              `json:"id"`
	Kind      domain.EventKind    `json:"kind"`
	TicketID  string              `json:"ticket_id"`
	ActorID   *string             `json:"actor_id,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	Payload   domain.EventPayload `json:"payload"`
}
