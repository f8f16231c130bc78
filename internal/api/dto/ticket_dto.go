package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// UpdateAssigneeRequest payload. A null assignee_id unassigns.
type UpdateAssigneeRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Body string `json:"body"`
}

// CreateAttachmentRequest payload; the blob is uploaded separately and
// referenced by storage key.
type CreateAttachmentRequest struct {
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	StorageKey string `json:"storage_key"`
	SizeBytes  int64  `json:"size_bytes"`
}

// TicketResponse mirrors a stored ticket.
type TicketResponse struct {
	ID             string              `json:"id"`
	Number         int64               `json:"number"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	RequesterName  string              `json:"requester_name"`
	RequesterEmail string              `json:"requester_email"`
	Status         domain.TicketStatus `json:"status"`
	AssigneeID     *string             `json:"assignee_id"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// TicketListResponse is one page plus the total match count.
type TicketListResponse struct {
	Data  []TicketResponse `json:"data"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// MessageResponse mirrors a ticket message.
type MessageResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentResponse mirrors attachment metadata.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	StorageKey string    `json:"storage_key"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}

// TicketDetailResponse provides full ticket info with child ledgers.
type TicketDetailResponse struct {
	TicketResponse
	Messages    []MessageResponse    `json:"messages"`
	Attachments []AttachmentResponse `json:"attachments"`
}

// AuditEventResponse mirrors a persisted audit event.
type AuditEventResponse struct {
	ID        string              `json:"id"`
	TicketID  string              `json:"ticket_id"`
	ActorID   *string             `json:"actor_id"`
	Kind      domain.EventKind    `json:"kind"`
	Payload   domain.EventPayload `json:"payload"`
	CreatedAt time.Time           `json:"created_at"`
}
