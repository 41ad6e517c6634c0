package domain

import "time"

// SlotStatus enumerates lifecycle states for consultation slots.
type SlotStatus string

const (
	SlotStatusDraft     SlotStatus = "DRAFT"
	SlotStatusAvailable SlotStatus = "AVAILABLE"
	SlotStatusPending   SlotStatus = "PENDING"
	SlotStatusAccepted  SlotStatus = "ACCEPTED"
	SlotStatusRejected  SlotStatus = "REJECTED"
	SlotStatusCancelled SlotStatus = "CANCELLED"
	SlotStatusCompleted SlotStatus = "COMPLETED"
)

// ActiveStatuses are the not-yet-resolved states that participate in overlap
// checks and default listings.
var ActiveStatuses = []SlotStatus{SlotStatusAvailable, SlotStatusPending, SlotStatusAccepted}

// Active reports whether the status belongs to the active set.
func (s SlotStatus) Active() bool {
	for _, status := range ActiveStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s SlotStatus) Terminal() bool {
	switch s {
	case SlotStatusRejected, SlotStatusCancelled, SlotStatusCompleted:
		return true
	}
	return false
}

// Valid reports whether the status is a known enumeration value.
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotStatusDraft, SlotStatusAvailable, SlotStatusPending,
		SlotStatusAccepted, SlotStatusRejected, SlotStatusCancelled, SlotStatusCompleted:
		return true
	}
	return false
}

// ActorRole identifies who performs a mutation.
type ActorRole string

const (
	RoleProvider  ActorRole = "PROVIDER"
	RoleRequester ActorRole = "REQUESTER"
	RoleSystem    ActorRole = "SYSTEM"
)

// Valid reports whether the role is a known enumeration value.
func (r ActorRole) Valid() bool {
	switch r {
	case RoleProvider, RoleRequester, RoleSystem:
		return true
	}
	return false
}

// DateLayout is the civil date exchange format.
const DateLayout = "2006-01-02"

// NoteMaxLength bounds free-text notes.
const NoteMaxLength = 500

// NormalizeDate strips the clock component, keeping the civil date in UTC.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay compares the civil dates of two values.
func SameDay(a, b time.Time) bool {
	return NormalizeDate(a).Equal(NormalizeDate(b))
}

// TimeSlot is the aggregate for a bookable consultation interval. Rows are
// never physically removed; DeletedAt marks logical removal.
type TimeSlot struct {
	ID          string
	ProviderID  string
	RequesterID *string
	Date        time.Time
	StartTime   TimeOfDay
	EndTime     TimeOfDay
	Status      SlotStatus
	Note        string

	CreatedAt     time.Time
	CreatedBy     *string
	CreatedByRole ActorRole
	UpdatedAt     time.Time
	UpdatedBy     *string
	UpdatedByRole ActorRole

	DeletedAt     *time.Time
	DeletedBy     *string
	DeletedByRole *ActorRole
}

// Deleted reports whether the slot is soft-deleted.
func (s *TimeSlot) Deleted() bool {
	return s.DeletedAt != nil
}

// Active is the composable predicate shared by the overlap detector and
// default listings: not deleted and in a not-yet-resolved status.
func (s *TimeSlot) Active() bool {
	return !s.Deleted() && s.Status.Active()
}

// SlotConflict describes one conflicting slot in a rejection. Duplicate marks
// an exact (date, start, end) match as opposed to a partial overlap.
type SlotConflict struct {
	SlotID    string    `json:"slot_id,omitempty"`
	Date      string    `json:"date"`
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`
	Duplicate bool      `json:"duplicate"`
	Message   string    `json:"message"`
}
