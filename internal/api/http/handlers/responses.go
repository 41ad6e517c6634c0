package handlers

import (
	"strings"
	"time"

	"github.com/spec-kit/booking-service/internal/api/dto"
	"github.com/spec-kit/booking-service/internal/domain"
	apperrors "github.com/spec-kit/booking-service/pkg/util"
)

func parseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(domain.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("date must be formatted YYYY-MM-DD", map[string]any{"date": raw})
	}
	return domain.NormalizeDate(parsed), nil
}

func parseTimeOfDay(field, raw string) (domain.TimeOfDay, error) {
	tod, err := domain.ParseTimeOfDay(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperrors.NewValidationError(field+" must be formatted HH:MM", map[string]any{field: raw})
	}
	return tod, nil
}

func slotResponse(slot *domain.TimeSlot) dto.SlotResponse {
	return dto.SlotResponse{
		ID:            slot.ID,
		ProviderID:    slot.ProviderID,
		RequesterID:   slot.RequesterID,
		Date:          slot.Date.Format(domain.DateLayout),
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
		Status:        slot.Status,
		Note:          slot.Note,
		CreatedAt:     slot.CreatedAt,
		CreatedBy:     slot.CreatedBy,
		CreatedByRole: slot.CreatedByRole,
		UpdatedAt:     slot.UpdatedAt,
		UpdatedBy:     slot.UpdatedBy,
		UpdatedByRole: slot.UpdatedByRole,
		DeletedAt:     slot.DeletedAt,
	}
}

func draftSlotResponse(draft domain.DraftSlot) dto.DraftSlotResponse {
	return dto.DraftSlotResponse{
		ProviderID: draft.ProviderID,
		Date:       draft.Date.Format(domain.DateLayout),
		StartTime:  draft.StartTime,
		EndTime:    draft.EndTime,
		Note:       draft.Note,
	}
}

func draftSetResponse(set *domain.DraftSet) dto.DraftSetResponse {
	drafts := make([]dto.DraftSlotResponse, 0, len(set.Drafts))
	for _, draft := range set.Drafts {
		drafts = append(drafts, draftSlotResponse(draft))
	}
	return dto.DraftSetResponse{
		SessionID: set.SessionID,
		State:     set.State,
		Drafts:    drafts,
		UpdatedAt: set.UpdatedAt,
	}
}

func slotHistoryResponse(entry *domain.SlotHistory) dto.SlotHistoryResponse {
	return dto.SlotHistoryResponse{
		ID:            entry.ID,
		SlotID:        entry.SlotID,
		ChangedByRole: entry.ChangedByRole,
		ChangedByID:   entry.ChangedByID,
		ChangeType:    entry.ChangeType,
		OldValue:      entry.OldValue,
		NewValue:      entry.NewValue,
		CreatedAt:     entry.CreatedAt,
	}
}
