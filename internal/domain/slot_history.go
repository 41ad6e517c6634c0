package domain

import "time"

// SlotChangeType captures what changed in a history entry.
type SlotChangeType string

const (
	ChangeTypePublish    SlotChangeType = "PUBLISH"
	ChangeTypeStatus     SlotChangeType = "STATUS_CHANGE"
	ChangeTypeReschedule SlotChangeType = "RESCHEDULE"
	ChangeTypeSoftDelete SlotChangeType = "SOFT_DELETE"
)

// SlotHistory is an immutable audit trail entry. ChangedByID may be nil for
// system-initiated changes; the role is always recorded.
type SlotHistory struct {
	ID            string
	SlotID        string
	ChangedByRole ActorRole
	ChangedByID   *string
	ChangeType    SlotChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
