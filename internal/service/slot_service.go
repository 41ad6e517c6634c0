package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/events"
	"github.com/spec-kit/booking-service/internal/repository"
	"github.com/spec-kit/booking-service/pkg/util"
)

// errBatchConflict aborts a day-locked transaction when the overlap detector
// found conflicts; the conflicts themselves travel via closure capture.
var errBatchConflict = errors.New("batch conflicts with existing slots")

// SlotService coordinates the booking workflows: draft staging, atomic
// publish, lifecycle transitions and soft deletion.
type SlotService struct {
	slots      repository.SlotRepository
	history    repository.SlotHistoryRepository
	dispatcher events.Dispatcher
	audit      *AuditRecorder
	logger     *zap.Logger
}

// SlotDependencies bundles collaborators for the slot service.
type SlotDependencies struct {
	SlotRepo    repository.SlotRepository
	HistoryRepo repository.SlotHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewSlotService constructs the service.
func NewSlotService(deps SlotDependencies) *SlotService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotService{
		slots:      deps.SlotRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		audit:      NewAuditRecorder(),
		logger:     logger,
	}
}

// DraftSlotInput describes one candidate slot for staging.
type DraftSlotInput struct {
	ProviderID string
	Date       time.Time
	StartTime  domain.TimeOfDay
	EndTime    domain.TimeOfDay
	Note       string
}

func (in DraftSlotInput) interval() SlotInterval {
	return SlotInterval{
		ProviderID: in.ProviderID,
		Date:       domain.NormalizeDate(in.Date),
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
	}
}

// SlotUpdateInput carries the changed fields of an in-place update; nil means
// keep the current value.
type SlotUpdateInput struct {
	Date      *time.Time
	StartTime *domain.TimeOfDay
	EndTime   *domain.TimeOfDay
	Note      *string
}

// OverlapConflictError wraps a non-empty conflict list into the error callers
// surface to the end actor.
func OverlapConflictError(conflicts []domain.SlotConflict) error {
	return util.NewOverlapConflict(map[string]any{"conflicts": conflicts})
}

// StageDraft validates the candidate against already-staged drafts plus
// currently-persisted active slots and either stages it or returns the
// conflicting slots. Persisted state is never mutated.
func (s *SlotService) StageDraft(ctx context.Context, set *domain.DraftSet, input DraftSlotInput) (*domain.DraftSlot, []domain.SlotConflict, error) {
	if set == nil {
		return nil, nil, util.NewValidationError("draft set required", nil)
	}
	if err := validateDraftInput(input); err != nil {
		return nil, nil, err
	}

	candidate := input.interval()
	conflicts := FindDraftConflicts(candidate, set.Drafts)

	persisted, err := s.slots.ListActiveForDay(ctx, candidate.ProviderID, candidate.Date, "")
	if err != nil {
		return nil, nil, util.NewPersistenceError(err)
	}
	conflicts = append(conflicts, FindConflicts(candidate, persisted, "")...)
	if len(conflicts) > 0 {
		return nil, conflicts, nil
	}

	draft := domain.DraftSlot{
		ProviderID: candidate.ProviderID,
		Date:       candidate.Date,
		StartTime:  candidate.StartTime,
		EndTime:    candidate.EndTime,
		Note:       strings.TrimSpace(input.Note),
	}
	set.Add(draft)
	s.logger.Debug("draft staged",
		zap.String("session_id", set.SessionID),
		zap.String("provider_id", draft.ProviderID),
		zap.String("date", draft.Date.Format(domain.DateLayout)),
	)
	return &draft, nil, nil
}

// PublishDrafts is the atomic commit point. The entire draft set is
// re-validated as one batch against the latest persisted state inside a
// serializable transaction holding provider+date locks; on any conflict
// nothing is persisted and the set stays intact. On success every slot gets
// its role-derived initial status and audit stamps, and the buffer empties.
func (s *SlotService) PublishDrafts(ctx context.Context, set *domain.DraftSet, actorID *string, actorRole domain.ActorRole) ([]domain.TimeSlot, []domain.SlotConflict, error) {
	if set == nil || set.Empty() {
		return nil, nil, util.NewValidationError("no drafts staged", nil)
	}
	if !actorRole.Valid() {
		return nil, nil, util.NewValidationError("actor role required", nil)
	}
	initial, err := InitialStatus(actorRole)
	if err != nil {
		return nil, nil, err
	}

	candidates := make([]SlotInterval, 0, len(set.Drafts))
	for _, draft := range set.Drafts {
		candidates = append(candidates, SlotInterval{
			ProviderID: draft.ProviderID,
			Date:       domain.NormalizeDate(draft.Date),
			StartTime:  draft.StartTime,
			EndTime:    draft.EndTime,
		})
	}

	var conflicts []domain.SlotConflict
	created := make([]*domain.TimeSlot, 0, len(set.Drafts))

	txErr := s.slots.WithDayLocks(ctx, dayKeys(candidates), func(ctx context.Context, q repository.SlotQuerier) error {
		var existing []domain.TimeSlot
		for _, key := range dayKeys(candidates) {
			slots, err := q.ListActiveForDay(ctx, key.ProviderID, key.Date, "")
			if err != nil {
				return err
			}
			existing = append(existing, slots...)
		}

		conflicts = FindBatchConflicts(candidates, existing)
		if len(conflicts) > 0 {
			return errBatchConflict
		}

		created = created[:0]
		for _, draft := range set.Drafts {
			slot := &domain.TimeSlot{
				ProviderID: draft.ProviderID,
				Date:       domain.NormalizeDate(draft.Date),
				StartTime:  draft.StartTime,
				EndTime:    draft.EndTime,
				Status:     initial,
				Note:       draft.Note,
			}
			if initial == domain.SlotStatusPending && actorRole == domain.RoleRequester {
				slot.RequesterID = actorID
			}
			s.audit.StampCreate(slot, actorID, actorRole)
			created = append(created, slot)
		}
		return q.CreateBatch(ctx, created)
	})
	if errors.Is(txErr, errBatchConflict) {
		return nil, conflicts, nil
	}
	if txErr != nil {
		return nil, nil, util.NewPersistenceError(txErr)
	}

	result := make([]domain.TimeSlot, 0, len(created))
	for _, slot := range created {
		s.recordHistory(ctx, slot.ID, actorRole, actorID, domain.ChangeTypePublish, nil, map[string]any{
			"status":     slot.Status,
			"date":       slot.Date.Format(domain.DateLayout),
			"start_time": slot.StartTime.String(),
			"end_time":   slot.EndTime.String(),
		})
		s.publishEvent(ctx, events.Event{
			Type:   events.EventSlotPublished,
			SlotID: slot.ID,
			Actor:  events.Actor{Role: actorRole, UserID: actorID},
			Payload: events.SlotPublishedPayload{
				ProviderID: slot.ProviderID,
				Date:       slot.Date.Format(domain.DateLayout),
				StartTime:  slot.StartTime,
				EndTime:    slot.EndTime,
				Status:     slot.Status,
			},
		})
		result = append(result, *slot)
	}

	set.Discard()
	s.logger.Info("drafts published",
		zap.String("session_id", set.SessionID),
		zap.Int("count", len(result)),
		zap.String("role", string(actorRole)),
	)
	return result, nil, nil
}

// DiscardDrafts clears the staging buffer without touching persisted data.
func (s *SlotService) DiscardDrafts(set *domain.DraftSet) {
	if set == nil {
		return
	}
	set.Discard()
}

// UpdateSlot reschedules or annotates a slot in place. The overlap check
// excludes the slot's own prior interval and runs under the target day lock.
func (s *SlotService) UpdateSlot(ctx context.Context, slotID string, input SlotUpdateInput, actorID *string, actorRole domain.ActorRole) (*domain.TimeSlot, []domain.SlotConflict, error) {
	if !actorRole.Valid() {
		return nil, nil, util.NewValidationError("actor role required", nil)
	}
	slot, err := s.getActive(ctx, slotID)
	if err != nil {
		return nil, nil, err
	}
	if slot.Status.Terminal() {
		return nil, nil, util.NewInvalidTransition(string(slot.Status), "update")
	}

	newDate := slot.Date
	if input.Date != nil {
		newDate = domain.NormalizeDate(*input.Date)
	}
	newStart := slot.StartTime
	if input.StartTime != nil {
		newStart = *input.StartTime
	}
	newEnd := slot.EndTime
	if input.EndTime != nil {
		newEnd = *input.EndTime
	}
	newNote := slot.Note
	if input.Note != nil {
		newNote = strings.TrimSpace(*input.Note)
	}
	if err := validateInterval(newStart, newEnd); err != nil {
		return nil, nil, err
	}
	if len(newNote) > domain.NoteMaxLength {
		return nil, nil, util.NewValidationError(fmt.Sprintf("note exceeds %d characters", domain.NoteMaxLength), nil)
	}

	oldValue := map[string]any{
		"date":       slot.Date.Format(domain.DateLayout),
		"start_time": slot.StartTime.String(),
		"end_time":   slot.EndTime.String(),
	}
	rescheduled := events.SlotRescheduledPayload{
		OldDate:      slot.Date.Format(domain.DateLayout),
		NewDate:      newDate.Format(domain.DateLayout),
		OldStartTime: slot.StartTime,
		NewStartTime: newStart,
		OldEndTime:   slot.EndTime,
		NewEndTime:   newEnd,
	}

	var conflicts []domain.SlotConflict
	txErr := s.slots.WithDayLocks(ctx, []repository.DayKey{{ProviderID: slot.ProviderID, Date: newDate}}, func(ctx context.Context, q repository.SlotQuerier) error {
		existing, err := q.ListActiveForDay(ctx, slot.ProviderID, newDate, slot.ID)
		if err != nil {
			return err
		}
		candidate := SlotInterval{ProviderID: slot.ProviderID, Date: newDate, StartTime: newStart, EndTime: newEnd}
		conflicts = FindConflicts(candidate, existing, slot.ID)
		if len(conflicts) > 0 {
			return errBatchConflict
		}

		slot.Date = newDate
		slot.StartTime = newStart
		slot.EndTime = newEnd
		slot.Note = newNote
		s.audit.StampUpdate(slot, actorID, actorRole)
		return q.Update(ctx, slot)
	})
	if errors.Is(txErr, errBatchConflict) {
		return nil, conflicts, nil
	}
	if errors.Is(txErr, pgx.ErrNoRows) {
		return nil, nil, util.NewNotFound("slot", map[string]any{"slot_id": slotID})
	}
	if txErr != nil {
		return nil, nil, util.NewPersistenceError(txErr)
	}

	s.recordHistory(ctx, slot.ID, actorRole, actorID, domain.ChangeTypeReschedule, oldValue, map[string]any{
		"date":       slot.Date.Format(domain.DateLayout),
		"start_time": slot.StartTime.String(),
		"end_time":   slot.EndTime.String(),
	})
	s.publishEvent(ctx, events.Event{
		Type:    events.EventSlotRescheduled,
		SlotID:  slot.ID,
		Actor:   events.Actor{Role: actorRole, UserID: actorID},
		Payload: rescheduled,
	})
	return slot, nil, nil
}

// TransitionSlot applies an explicit lifecycle action. A requester booking an
// AVAILABLE slot becomes its requester.
func (s *SlotService) TransitionSlot(ctx context.Context, slotID string, target domain.SlotStatus, actorID *string, actorRole domain.ActorRole) (*domain.TimeSlot, error) {
	if !actorRole.Valid() {
		return nil, util.NewValidationError("actor role required", nil)
	}
	if !target.Valid() {
		return nil, util.NewValidationError(fmt.Sprintf("unknown status %q", target), nil)
	}
	slot, err := s.getActive(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if err := Transition(slot.Status, target, actorRole); err != nil {
		return nil, err
	}

	oldStatus := slot.Status
	slot.Status = target
	if target == domain.SlotStatusPending && actorRole == domain.RoleRequester && actorID != nil && slot.RequesterID == nil {
		slot.RequesterID = actorID
	}
	s.audit.StampUpdate(slot, actorID, actorRole)

	if err := s.slots.Update(ctx, slot); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("slot", map[string]any{"slot_id": slotID})
		}
		return nil, util.NewPersistenceError(err)
	}

	s.recordHistory(ctx, slot.ID, actorRole, actorID, domain.ChangeTypeStatus,
		map[string]any{"status": oldStatus},
		map[string]any{"status": slot.Status})

	eventType := events.EventSlotStatusChanged
	if oldStatus == domain.SlotStatusAvailable && target == domain.SlotStatusPending {
		eventType = events.EventSlotBooked
	}
	s.publishEvent(ctx, events.Event{
		Type:   eventType,
		SlotID: slot.ID,
		Actor:  events.Actor{Role: actorRole, UserID: actorID},
		Payload: events.SlotStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: slot.Status,
		},
	})
	return slot, nil
}

// SoftDeleteSlot marks the slot as logically removed. History and audit
// stamps remain retrievable by id; reversal never happens by deleting rows.
func (s *SlotService) SoftDeleteSlot(ctx context.Context, slotID string, actorID *string, actorRole domain.ActorRole) error {
	if !actorRole.Valid() {
		return util.NewValidationError("actor role required", nil)
	}
	slot, err := s.getActive(ctx, slotID)
	if err != nil {
		return err
	}

	s.audit.StampSoftDelete(slot, actorID, actorRole)
	if err := s.slots.SoftDelete(ctx, slot); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("slot", map[string]any{"slot_id": slotID})
		}
		return util.NewPersistenceError(err)
	}

	s.recordHistory(ctx, slot.ID, actorRole, actorID, domain.ChangeTypeSoftDelete, nil, map[string]any{
		"deleted_at": slot.DeletedAt,
	})
	s.publishEvent(ctx, events.Event{
		Type:   events.EventSlotDeleted,
		SlotID: slot.ID,
		Actor:  events.Actor{Role: actorRole, UserID: actorID},
		Payload: events.SlotDeletedPayload{
			ProviderID: slot.ProviderID,
			Date:       slot.Date.Format(domain.DateLayout),
		},
	})
	return nil
}

// ListSlots returns slots matching the filter; soft-deleted rows are excluded
// unless the filter opts in.
func (s *SlotService) ListSlots(ctx context.Context, filter repository.SlotFilter) ([]domain.TimeSlot, error) {
	slots, err := s.slots.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, util.NewPersistenceError(err)
	}
	return slots, nil
}

// GetSlot fetches a slot by id, including soft-deleted rows so audit stamps
// stay retrievable.
func (s *SlotService) GetSlot(ctx context.Context, slotID string) (*domain.TimeSlot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("slot", map[string]any{"slot_id": slotID})
		}
		return nil, util.NewPersistenceError(err)
	}
	return slot, nil
}

// ListHistory returns the audit ledger for a slot.
func (s *SlotService) ListHistory(ctx context.Context, slotID string) ([]domain.SlotHistory, error) {
	if s.history == nil {
		return []domain.SlotHistory{}, nil
	}
	return s.history.ListBySlot(ctx, slotID)
}

// getActive fetches a slot, treating soft-deleted rows as not found for
// mutation purposes.
func (s *SlotService) getActive(ctx context.Context, slotID string) (*domain.TimeSlot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("slot", map[string]any{"slot_id": slotID})
		}
		return nil, util.NewPersistenceError(err)
	}
	if slot.Deleted() {
		return nil, util.NewNotFound("slot", map[string]any{"slot_id": slotID})
	}
	return slot, nil
}

// recordHistory is best-effort: the ledger supplements the in-row audit
// stamps, so a failed entry is logged rather than failing the operation.
func (s *SlotService) recordHistory(ctx context.Context, slotID string, role domain.ActorRole, actorID *string, changeType domain.SlotChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.SlotHistory{
		SlotID:        slotID,
		ChangedByRole: role,
		ChangedByID:   actorID,
		ChangeType:    changeType,
		OldValue:      oldValue,
		NewValue:      newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Error("record slot history", zap.String("slot_id", slotID), zap.Error(err))
	}
}

func (s *SlotService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func validateDraftInput(input DraftSlotInput) error {
	if strings.TrimSpace(input.ProviderID) == "" {
		return util.NewValidationError("provider_id required", nil)
	}
	if input.Date.IsZero() {
		return util.NewValidationError("date required", nil)
	}
	if err := validateInterval(input.StartTime, input.EndTime); err != nil {
		return err
	}
	if len(strings.TrimSpace(input.Note)) > domain.NoteMaxLength {
		return util.NewValidationError(fmt.Sprintf("note exceeds %d characters", domain.NoteMaxLength), nil)
	}
	return nil
}

func validateInterval(start, end domain.TimeOfDay) error {
	if !start.Valid() || !end.Valid() {
		return util.NewValidationError("start and end must be valid times of day", nil)
	}
	if start >= end {
		return util.NewValidationError("start_time must be before end_time", map[string]any{
			"start_time": start.String(),
			"end_time":   end.String(),
		})
	}
	return nil
}

func dayKeys(candidates []SlotInterval) []repository.DayKey {
	seen := make(map[string]struct{}, len(candidates))
	keys := make([]repository.DayKey, 0, len(candidates))
	for _, candidate := range candidates {
		key := repository.DayKey{ProviderID: candidate.ProviderID, Date: candidate.Date}
		if _, ok := seen[key.String()]; ok {
			continue
		}
		seen[key.String()] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
