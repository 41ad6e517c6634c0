package service

import (
	"time"

	"github.com/spec-kit/booking-service/internal/domain"
)

// SlotInterval is a candidate interval submitted for overlap checking.
type SlotInterval struct {
	ProviderID string
	Date       time.Time
	StartTime  domain.TimeOfDay
	EndTime    domain.TimeOfDay
}

// Half-open intervals [s1,e1) and [s2,e2) conflict iff s1 < e2 && s2 < e1.
// A slot ending at T and another starting at T do not conflict.
func intervalsOverlap(s1, e1, s2, e2 domain.TimeOfDay) bool {
	return s1 < e2 && s2 < e1
}

func sameInterval(a SlotInterval, bStart, bEnd domain.TimeOfDay) bool {
	return a.StartTime == bStart && a.EndTime == bEnd
}

// FindConflicts returns every persisted active slot that conflicts with the
// candidate for the same provider and date. excludeID lets an in-place update
// ignore its own prior interval. Conflicts are data, not errors; the caller
// decides whether they are fatal.
func FindConflicts(candidate SlotInterval, existing []domain.TimeSlot, excludeID string) []domain.SlotConflict {
	var conflicts []domain.SlotConflict
	for i := range existing {
		slot := &existing[i]
		if excludeID != "" && slot.ID == excludeID {
			continue
		}
		if !slot.Active() {
			continue
		}
		if slot.ProviderID != candidate.ProviderID || !domain.SameDay(slot.Date, candidate.Date) {
			continue
		}
		if !intervalsOverlap(candidate.StartTime, candidate.EndTime, slot.StartTime, slot.EndTime) {
			continue
		}
		conflict := domain.SlotConflict{
			SlotID:    slot.ID,
			Date:      slot.Date.Format(domain.DateLayout),
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Message:   "overlaps an existing slot",
		}
		if sameInterval(candidate, slot.StartTime, slot.EndTime) {
			conflict.Duplicate = true
			conflict.Message = "identical slot already exists"
		}
		conflicts = append(conflicts, conflict)
	}
	return conflicts
}

// FindBatchConflicts validates a whole candidate batch: each candidate against
// persisted slots, plus a pairwise sweep within the batch itself, since two
// new slots submitted together must not overlap each other.
func FindBatchConflicts(candidates []SlotInterval, existing []domain.TimeSlot) []domain.SlotConflict {
	var conflicts []domain.SlotConflict
	for _, candidate := range candidates {
		conflicts = append(conflicts, FindConflicts(candidate, existing, "")...)
	}
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]
			if a.ProviderID != b.ProviderID || !domain.SameDay(a.Date, b.Date) {
				continue
			}
			if !intervalsOverlap(a.StartTime, a.EndTime, b.StartTime, b.EndTime) {
				continue
			}
			conflict := domain.SlotConflict{
				Date:      b.Date.Format(domain.DateLayout),
				StartTime: b.StartTime,
				EndTime:   b.EndTime,
				Message:   "overlaps another slot in the same batch",
			}
			if sameInterval(a, b.StartTime, b.EndTime) {
				conflict.Duplicate = true
				conflict.Message = "duplicate slot in the same batch"
			}
			conflicts = append(conflicts, conflict)
		}
	}
	return conflicts
}

// FindDraftConflicts checks a candidate against the already-staged drafts of
// the same session.
func FindDraftConflicts(candidate SlotInterval, staged []domain.DraftSlot) []domain.SlotConflict {
	var conflicts []domain.SlotConflict
	for i := range staged {
		draft := &staged[i]
		if draft.ProviderID != candidate.ProviderID || !domain.SameDay(draft.Date, candidate.Date) {
			continue
		}
		if !intervalsOverlap(candidate.StartTime, candidate.EndTime, draft.StartTime, draft.EndTime) {
			continue
		}
		conflict := domain.SlotConflict{
			Date:      draft.Date.Format(domain.DateLayout),
			StartTime: draft.StartTime,
			EndTime:   draft.EndTime,
			Message:   "overlaps a staged slot",
		}
		if sameInterval(candidate, draft.StartTime, draft.EndTime) {
			conflict.Duplicate = true
			conflict.Message = "identical slot already staged"
		}
		conflicts = append(conflicts, conflict)
	}
	return conflicts
}
