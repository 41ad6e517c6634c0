package dto

import (
	"time"

	"github.com/spec-kit/booking-service/internal/domain"
)

// StageDraftRequest payload for staging one candidate slot.
type StageDraftRequest struct {
	ProviderID string `json:"provider_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Note       string `json:"note"`
}

// PublishDraftsRequest is intentionally empty; the staged set is resolved from
// the caller's session.
type PublishDraftsRequest struct{}

// UpdateSlotRequest carries an in-place reschedule; omitted fields keep their
// current values.
type UpdateSlotRequest struct {
	Date      *string `json:"date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Note      *string `json:"note"`
}

// TransitionSlotRequest names the attempted target status.
type TransitionSlotRequest struct {
	Status domain.SlotStatus `json:"status"`
}

// DraftSlotResponse represents one staged slot.
type DraftSlotResponse struct {
	ProviderID string           `json:"provider_id"`
	Date       string           `json:"date"`
	StartTime  domain.TimeOfDay `json:"start_time"`
	EndTime    domain.TimeOfDay `json:"end_time"`
	Note       string           `json:"note,omitempty"`
}

// DraftSetResponse represents the caller's staging buffer.
type DraftSetResponse struct {
	SessionID string               `json:"session_id"`
	State     domain.DraftSetState `json:"state"`
	Drafts    []DraftSlotResponse  `json:"drafts"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// SlotResponse represents a published slot.
type SlotResponse struct {
	ID            string            `json:"id"`
	ProviderID    string            `json:"provider_id"`
	RequesterID   *string           `json:"requester_id"`
	Date          string            `json:"date"`
	StartTime     domain.TimeOfDay  `json:"start_time"`
	EndTime       domain.TimeOfDay  `json:"end_time"`
	Status        domain.SlotStatus `json:"status"`
	Note          string            `json:"note,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	CreatedBy     *string           `json:"created_by"`
	CreatedByRole domain.ActorRole  `json:"created_by_role"`
	UpdatedAt     time.Time         `json:"updated_at"`
	UpdatedBy     *string           `json:"updated_by"`
	UpdatedByRole domain.ActorRole  `json:"updated_by_role"`
	DeletedAt     *time.Time        `json:"deleted_at,omitempty"`
}

// SlotHistoryResponse represents one ledger entry.
type SlotHistoryResponse struct {
	ID            string                `json:"id"`
	SlotID        string                `json:"slot_id"`
	ChangedByRole domain.ActorRole      `json:"changed_by_role"`
	ChangedByID   *string               `json:"changed_by_id"`
	ChangeType    domain.SlotChangeType `json:"change_type"`
	OldValue      map[string]any        `json:"old_value,omitempty"`
	NewValue      map[string]any        `json:"new_value,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// SlotListQuery captures list filters.
type SlotListQuery struct {
	ProviderID     *string
	RequesterID    *string
	Statuses       []domain.SlotStatus
	DateFrom       *time.Time
	DateTo         *time.Time
	IncludeDeleted bool
	Limit          int
	Offset         int
}
