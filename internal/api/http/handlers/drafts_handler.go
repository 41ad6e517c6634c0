package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/booking-service/internal/api/dto"
	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/repository"
	"github.com/spec-kit/booking-service/internal/service"
	apperrors "github.com/spec-kit/booking-service/pkg/util"
)

// DraftsHandler manages the session-scoped staging buffer. Each participant
// owns one buffer keyed by their user ID.
type DraftsHandler struct {
	slots  *service.SlotService
	drafts repository.DraftSessionStore
}

// NewDraftsHandler constructs handler.
func NewDraftsHandler(slotService *service.SlotService, draftStore repository.DraftSessionStore) *DraftsHandler {
	return &DraftsHandler{slots: slotService, drafts: draftStore}
}

// GetDrafts GET /slots/drafts.
func (h *DraftsHandler) GetDrafts(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("participant required")
	}
	set, err := h.drafts.Load(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": draftSetResponse(set)})
}

// StageDraft POST /slots/drafts.
func (h *DraftsHandler) StageDraft(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("participant required")
	}
	var req dto.StageDraftRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	providerID := strings.TrimSpace(req.ProviderID)
	if providerID == "" && principal.Role == domain.RoleProvider {
		providerID = principal.User.ID
	}
	if providerID == "" {
		return apperrors.NewValidationError("provider_id required", nil)
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}
	startTime, err := parseTimeOfDay("start_time", req.StartTime)
	if err != nil {
		return err
	}
	endTime, err := parseTimeOfDay("end_time", req.EndTime)
	if err != nil {
		return err
	}

	set, err := h.drafts.Load(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}

	input := service.DraftSlotInput{
		ProviderID: providerID,
		Date:       date,
		StartTime:  startTime,
		EndTime:    endTime,
		Note:       req.Note,
	}
	draft, conflicts, err := h.slots.StageDraft(c.Context(), set, input)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return service.OverlapConflictError(conflicts)
	}

	if err := h.drafts.Save(c.Context(), set); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"draft": draftSlotResponse(*draft),
		"set":   draftSetResponse(set),
	}})
}

// PublishDrafts POST /slots/drafts/publish. Publishes the whole staged set
// atomically; on any conflict nothing is persisted and the buffer is kept.
func (h *DraftsHandler) PublishDrafts(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("participant required")
	}
	set, err := h.drafts.Load(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}

	actorID := principal.User.ID
	published, conflicts, err := h.slots.PublishDrafts(c.Context(), set, &actorID, principal.Role)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return service.OverlapConflictError(conflicts)
	}

	if err := h.drafts.Delete(c.Context(), principal.User.ID); err != nil {
		return err
	}

	items := make([]dto.SlotResponse, 0, len(published))
	for i := range published {
		items = append(items, slotResponse(&published[i]))
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": items})
}

// DiscardDrafts DELETE /slots/drafts.
func (h *DraftsHandler) DiscardDrafts(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("participant required")
	}
	set, err := h.drafts.Load(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	h.slots.DiscardDrafts(set)
	if err := h.drafts.Delete(c.Context(), principal.User.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": draftSetResponse(set)})
}
