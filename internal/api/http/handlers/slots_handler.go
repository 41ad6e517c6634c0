package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/booking-service/internal/api/dto"
	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/repository"
	"github.com/spec-kit/booking-service/internal/service"
	apperrors "github.com/spec-kit/booking-service/pkg/util"
)

// SlotsHandler manages published slot endpoints.
type SlotsHandler struct {
	slots *service.SlotService
}

// NewSlotsHandler constructs handler.
func NewSlotsHandler(slotService *service.SlotService) *SlotsHandler {
	return &SlotsHandler{slots: slotService}
}

// ListSlots GET /slots.
func (h *SlotsHandler) ListSlots(c *fiber.Ctx) error {
	filter, err := parseSlotListQuery(c)
	if err != nil {
		return err
	}
	slots, err := h.slots.ListSlots(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.SlotResponse, 0, len(slots))
	for i := range slots {
		items = append(items, slotResponse(&slots[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetSlot GET /slots/:id. Soft-deleted slots stay readable here.
func (h *SlotsHandler) GetSlot(c *fiber.Ctx) error {
	slot, err := h.slots.GetSlot(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": slotResponse(slot)})
}

// GetSlotHistory GET /slots/:id/history.
func (h *SlotsHandler) GetSlotHistory(c *fiber.Ctx) error {
	entries, err := h.slots.ListHistory(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.SlotHistoryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, slotHistoryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateSlot PATCH /slots/:id.
func (h *SlotsHandler) UpdateSlot(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("participant required")
	}
	var req dto.UpdateSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	var input service.SlotUpdateInput
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return err
		}
		input.Date = &date
	}
	if req.StartTime != nil {
		start, err := parseTimeOfDay("start_time", *req.StartTime)
		if err != nil {
			return err
		}
		input.StartTime = &start
	}
	if req.EndTime != nil {
		end, err := parseTimeOfDay("end_time", *req.EndTime)
		if err != nil {
			return err
		}
		input.EndTime = &end
	}
	input.Note = req.Note

	actorID := principal.User.ID
	slot, conflicts, err := h.slots.UpdateSlot(c.Context(), c.Params("id"), input, &actorID, principal.Role)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return service.OverlapConflictError(conflicts)
	}
	return c.JSON(fiber.Map{"data": slotResponse(slot)})
}

// TransitionSlot POST /slots/:id/transition.
func (h *SlotsHandler) TransitionSlot(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("participant required")
	}
	var req dto.TransitionSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !req.Status.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": req.Status})
	}

	actorID := principal.User.ID
	slot, err := h.slots.TransitionSlot(c.Context(), c.Params("id"), req.Status, &actorID, principal.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": slotResponse(slot)})
}

// DeleteSlot DELETE /slots/:id.
func (h *SlotsHandler) DeleteSlot(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("participant required")
	}
	actorID := principal.User.ID
	if err := h.slots.SoftDeleteSlot(c.Context(), c.Params("id"), &actorID, principal.Role); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseSlotListQuery(c *fiber.Ctx) (repository.SlotFilter, error) {
	var filter repository.SlotFilter

	if v := strings.TrimSpace(c.Query("provider_id")); v != "" {
		filter.ProviderID = &v
	}
	if v := strings.TrimSpace(c.Query("requester_id")); v != "" {
		filter.RequesterID = &v
	}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := domain.SlotStatus(strings.ToUpper(strings.TrimSpace(part)))
			if !status.Valid() {
				return filter, apperrors.NewValidationError("unknown status filter", map[string]any{"status": part})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if v := c.Query("date_from"); v != "" {
		from, err := parseDate(v)
		if err != nil {
			return filter, err
		}
		filter.DateFrom = &from
	}
	if v := c.Query("date_to"); v != "" {
		to, err := parseDate(v)
		if err != nil {
			return filter, err
		}
		filter.DateTo = &to
	}
	if v := c.Query("include_deleted"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return filter, apperrors.NewValidationError("include_deleted must be a boolean", nil)
		}
		filter.IncludeDeleted = include
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filter, apperrors.NewValidationError("limit must be a non-negative integer", nil)
		}
		filter.Limit = limit
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, apperrors.NewValidationError("offset must be a non-negative integer", nil)
		}
		filter.Offset = offset
	}

	return filter, nil
}
