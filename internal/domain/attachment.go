package domain

import "time"

// Attachment stores metadata for a file uploaded to a ticket. The bytes
// live in blob storage addressed by StorageKey; this record is append-only.
type Attachment struct {
	ID         string
	TicketID   string
	FileName   string
	MimeType   string
	StorageKey string
	SizeBytes  int64
	CreatedAt  time.Time
}
