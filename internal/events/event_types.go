package events

import (
	"time"

	"github.com/spec-kit/booking-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSlotPublished     EventType = "slot_published"
	EventSlotBooked        EventType = "slot_booked"
	EventSlotStatusChanged EventType = "slot_status_changed"
	EventSlotRescheduled   EventType = "slot_rescheduled"
	EventSlotDeleted       EventType = "slot_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role   domain.ActorRole `json:"role"`
	UserID *string          `json:"user_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SlotID    string      `json:"slot_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SlotPublishedPayload payload.
type SlotPublishedPayload struct {
	ProviderID string            `json:"provider_id"`
	Date       string            `json:"date"`
	StartTime  domain.TimeOfDay  `json:"start_time"`
	EndTime    domain.TimeOfDay  `json:"end_time"`
	Status     domain.SlotStatus `json:"status"`
}

// SlotStatusChangedPayload payload.
type SlotStatusChangedPayload struct {
	OldStatus domain.SlotStatus `json:"old_status"`
	NewStatus domain.SlotStatus `json:"new_status"`
}

// SlotRescheduledPayload payload.
type SlotRescheduledPayload struct {
	OldDate      string           `json:"old_date"`
	NewDate      string           `json:"new_date"`
	OldStartTime domain.TimeOfDay `json:"old_start_time"`
	NewStartTime domain.TimeOfDay `json:"new_start_time"`
	OldEndTime   domain.TimeOfDay `json:"old_end_time"`
	NewEndTime   domain.TimeOfDay `json:"new_end_time"`
}

// SlotDeletedPayload payload.
type SlotDeletedPayload struct {
	ProviderID string `json:"provider_id"`
	Date       string `json:"date"`
}
