package events

import (
	"time"

	"github.com/spec-kit/pengaduan-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated       EventType = "complaint_created"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
	EventComplaintDeleted       EventType = "complaint_deleted"
)

// Actor encapsulates actor metadata for an event. UserID is nil for anonymous
// submissions.
type Actor struct {
	UserID *int64      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ComplaintID int64       `json:"complaint_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	Category domain.ComplaintCategory `json:"kategori"`
	Title    string                   `json:"judul"`
	HasPhoto bool                     `json:"has_photo"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
}

// ComplaintDeletedPayload payload.
type ComplaintDeletedPayload struct {
	Status domain.ComplaintStatus `json:"status"`
}
