package domain

import "time"

// DraftSetState tracks the staging buffer lifecycle.
type DraftSetState string

const (
	DraftSetEmpty   DraftSetState = "EMPTY"
	DraftSetStaging DraftSetState = "STAGING"
)

// DraftSlot is a staged, not-yet-persisted candidate slot. It is invisible to
// the counterpart until published.
type DraftSlot struct {
	ProviderID string    `json:"provider_id"`
	Date       time.Time `json:"date"`
	StartTime  TimeOfDay `json:"start_time"`
	EndTime    TimeOfDay `json:"end_time"`
	Note       string    `json:"note,omitempty"`
}

// DraftSet is the staging buffer for one booking session. It is owned by the
// calling session and passed by reference into staging calls; it is never
// shared across sessions, so it carries no locking.
type DraftSet struct {
	SessionID string        `json:"session_id"`
	State     DraftSetState `json:"state"`
	Drafts    []DraftSlot   `json:"drafts"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewDraftSet returns an empty staging buffer for the session.
func NewDraftSet(sessionID string) *DraftSet {
	return &DraftSet{SessionID: sessionID, State: DraftSetEmpty}
}

// Add stages a draft and moves the set to STAGING.
func (d *DraftSet) Add(slot DraftSlot) {
	d.Drafts = append(d.Drafts, slot)
	d.State = DraftSetStaging
	d.UpdatedAt = time.Now().UTC()
}

// Discard clears the buffer without touching persisted data.
func (d *DraftSet) Discard() {
	d.Drafts = nil
	d.State = DraftSetEmpty
	d.UpdatedAt = time.Now().UTC()
}

// Empty reports whether nothing is staged.
func (d *DraftSet) Empty() bool {
	return len(d.Drafts) == 0
}
