package service

import (
	"time"

	"github.com/spec-kit/booking-service/internal/domain"
)

// AuditRecorder stamps actor identity and role onto every slot mutation. A
// nil actor id means the action was system-initiated; the role is always
// recorded so consumers can tell "system" from "unspecified".
type AuditRecorder struct {
	now func() time.Time
}

// NewAuditRecorder returns a recorder using wall-clock time.
func NewAuditRecorder() *AuditRecorder {
	return &AuditRecorder{now: func() time.Time { return time.Now().UTC() }}
}

// StampCreate sets the created fields and mirrors them into the updated
// fields: a slot that has never been edited has identical stamps.
func (a *AuditRecorder) StampCreate(slot *domain.TimeSlot, actorID *string, role domain.ActorRole) {
	ts := a.now()
	slot.CreatedAt = ts
	slot.CreatedBy = actorID
	slot.CreatedByRole = role
	slot.UpdatedAt = ts
	slot.UpdatedBy = actorID
	slot.UpdatedByRole = role
}

// StampUpdate touches only the updated fields; created fields are immutable
// after creation.
func (a *AuditRecorder) StampUpdate(slot *domain.TimeSlot, actorID *string, role domain.ActorRole) {
	slot.UpdatedAt = a.now()
	slot.UpdatedBy = actorID
	slot.UpdatedByRole = role
}

// StampSoftDelete marks the slot as logically removed, leaving every other
// field untouched. The row stays queryable for audit purposes.
func (a *AuditRecorder) StampSoftDelete(slot *domain.TimeSlot, actorID *string, role domain.ActorRole) {
	ts := a.now()
	slot.DeletedAt = &ts
	slot.DeletedBy = actorID
	roleCopy := role
	slot.DeletedByRole = &roleCopy
}
