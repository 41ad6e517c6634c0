package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/events"
	"github.com/spec-kit/booking-service/internal/repository"
	"github.com/spec-kit/booking-service/pkg/util"
)

// fakeSlotRepository keeps slots in memory and emulates the day-locked
// transaction by restoring a snapshot when fn fails.
type fakeSlotRepository struct {
	slots  []domain.TimeSlot
	nextID int
}

func newFakeSlotRepository() *fakeSlotRepository {
	return &fakeSlotRepository{nextID: 1}
}

func (r *fakeSlotRepository) ListActiveForDay(_ context.Context, providerID string, date time.Time, excludeID string) ([]domain.TimeSlot, error) {
	var out []domain.TimeSlot
	for i := range r.slots {
		slot := r.slots[i]
		if excludeID != "" && slot.ID == excludeID {
			continue
		}
		if !slot.Active() {
			continue
		}
		if slot.ProviderID != providerID || !domain.SameDay(slot.Date, date) {
			continue
		}
		out = append(out, slot)
	}
	return out, nil
}

func (r *fakeSlotRepository) CreateBatch(_ context.Context, slots []*domain.TimeSlot) error {
	for _, slot := range slots {
		slot.ID = fmt.Sprintf("slot-%d", r.nextID)
		r.nextID++
		r.slots = append(r.slots, *slot)
	}
	return nil
}

func (r *fakeSlotRepository) Update(_ context.Context, slot *domain.TimeSlot) error {
	for i := range r.slots {
		if r.slots[i].ID == slot.ID && !r.slots[i].Deleted() {
			r.slots[i] = *slot
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeSlotRepository) GetByID(_ context.Context, id string) (*domain.TimeSlot, error) {
	for i := range r.slots {
		if r.slots[i].ID == id {
			slot := r.slots[i]
			return &slot, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeSlotRepository) ListWithFilter(_ context.Context, filter repository.SlotFilter) ([]domain.TimeSlot, error) {
	var out []domain.TimeSlot
	for i := range r.slots {
		slot := r.slots[i]
		if slot.Deleted() && !filter.IncludeDeleted {
			continue
		}
		if filter.ProviderID != nil && slot.ProviderID != *filter.ProviderID {
			continue
		}
		out = append(out, slot)
	}
	return out, nil
}

func (r *fakeSlotRepository) SoftDelete(_ context.Context, slot *domain.TimeSlot) error {
	for i := range r.slots {
		if r.slots[i].ID == slot.ID && !r.slots[i].Deleted() {
			r.slots[i] = *slot
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeSlotRepository) WithDayLocks(ctx context.Context, _ []repository.DayKey, fn func(ctx context.Context, q repository.SlotQuerier) error) error {
	snapshot := make([]domain.TimeSlot, len(r.slots))
	copy(snapshot, r.slots)
	snapshotID := r.nextID

	if err := fn(ctx, r); err != nil {
		r.slots = snapshot
		r.nextID = snapshotID
		return err
	}
	return nil
}

type fakeHistoryRepository struct {
	entries []domain.SlotHistory
}

func (r *fakeHistoryRepository) Create(_ context.Context, history *domain.SlotHistory) error {
	history.ID = fmt.Sprintf("hist-%d", len(r.entries)+1)
	r.entries = append(r.entries, *history)
	return nil
}

func (r *fakeHistoryRepository) ListBySlot(_ context.Context, slotID string) ([]domain.SlotHistory, error) {
	var out []domain.SlotHistory
	for _, entry := range r.entries {
		if entry.SlotID == slotID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type capturingDispatcher struct {
	published []events.Event
}

func (d *capturingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

type serviceFixture struct {
	service    *SlotService
	slots      *fakeSlotRepository
	history    *fakeHistoryRepository
	dispatcher *capturingDispatcher
}

func newServiceFixture() *serviceFixture {
	slots := newFakeSlotRepository()
	history := &fakeHistoryRepository{}
	dispatcher := &capturingDispatcher{}
	svc := NewSlotService(SlotDependencies{
		SlotRepo:    slots,
		HistoryRepo: history,
		Dispatcher:  dispatcher,
	})
	return &serviceFixture{service: svc, slots: slots, history: history, dispatcher: dispatcher}
}

func stageOne(t *testing.T, f *serviceFixture, set *domain.DraftSet, providerID string, date time.Time, start, end string) {
	t.Helper()
	_, conflicts, err := f.service.StageDraft(context.Background(), set, DraftSlotInput{
		ProviderID: providerID,
		Date:       date,
		StartTime:  mustTime(t, start),
		EndTime:    mustTime(t, end),
	})
	require.NoError(t, err)
	require.Empty(t, conflicts)
}

func publish(t *testing.T, f *serviceFixture, set *domain.DraftSet, actorID string, role domain.ActorRole) []domain.TimeSlot {
	t.Helper()
	published, conflicts, err := f.service.PublishDrafts(context.Background(), set, &actorID, role)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	return published
}

func TestStageAndPublishAsProvider(t *testing.T) {
	f := newServiceFixture()
	set := domain.NewDraftSet("session-1")
	date := day(2025, 9, 20)

	stageOne(t, f, set, "provider-1", date, "14:00", "15:00")
	assert.Equal(t, domain.DraftSetStaging, set.State)

	published := publish(t, f, set, "provider-1", domain.RoleProvider)
	require.Len(t, published, 1)

	slot := published[0]
	assert.Equal(t, domain.SlotStatusAvailable, slot.Status)
	assert.Equal(t, "provider-1", slot.ProviderID)
	assert.Nil(t, slot.RequesterID)
	require.NotNil(t, slot.CreatedBy)
	assert.Equal(t, "provider-1", *slot.CreatedBy)
	assert.Equal(t, domain.RoleProvider, slot.CreatedByRole)
	assert.Equal(t, slot.CreatedAt, slot.UpdatedAt)

	assert.True(t, set.Empty())
	assert.Equal(t, domain.DraftSetEmpty, set.State)

	require.Len(t, f.history.entries, 1)
	assert.Equal(t, domain.ChangeTypePublish, f.history.entries[0].ChangeType)
	require.Len(t, f.dispatcher.published, 1)
	assert.Equal(t, events.EventSlotPublished, f.dispatcher.published[0].Type)
}

func TestPublishAsRequesterYieldsPending(t *testing.T) {
	f := newServiceFixture()
	set := domain.NewDraftSet("session-1")

	stageOne(t, f, set, "provider-1", day(2025, 9, 20), "10:00", "11:00")
	published := publish(t, f, set, "requester-1", domain.RoleRequester)
	require.Len(t, published, 1)

	assert.Equal(t, domain.SlotStatusPending, published[0].Status)
	require.NotNil(t, published[0].RequesterID)
	assert.Equal(t, "requester-1", *published[0].RequesterID)
	assert.Equal(t, domain.RoleRequester, published[0].CreatedByRole)
}

func TestStageDraftRejectsOverlapWithPersisted(t *testing.T) {
	f := newServiceFixture()
	date := day(2025, 9, 20)

	first := domain.NewDraftSet("session-1")
	stageOne(t, f, first, "provider-1", date, "14:00", "15:00")
	publish(t, f, first, "provider-1", domain.RoleProvider)

	second := domain.NewDraftSet("session-2")
	_, conflicts, err := f.service.StageDraft(context.Background(), second, DraftSlotInput{
		ProviderID: "provider-1",
		Date:       date,
		StartTime:  mustTime(t, "14:30"),
		EndTime:    mustTime(t, "15:30"),
	})
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "2025-09-20", conflicts[0].Date)
	assert.Equal(t, mustTime(t, "14:00"), conflicts[0].StartTime)
	assert.Equal(t, mustTime(t, "15:00"), conflicts[0].EndTime)
	assert.False(t, conflicts[0].Duplicate)
	assert.True(t, second.Empty())
}

func TestStageDraftRejectsDuplicateAgainstStaged(t *testing.T) {
	f := newServiceFixture()
	set := domain.NewDraftSet("session-1")
	date := day(2025, 9, 20)

	stageOne(t, f, set, "provider-1", date, "14:00", "15:00")
	_, conflicts, err := f.service.StageDraft(context.Background(), set, DraftSlotInput{
		ProviderID: "provider-1",
		Date:       date,
		StartTime:  mustTime(t, "14:00"),
		EndTime:    mustTime(t, "15:00"),
	})
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.True(t, conflicts[0].Duplicate)
	assert.Len(t, set.Drafts, 1)
}

func TestStageDraftValidation(t *testing.T) {
	f := newServiceFixture()
	set := domain.NewDraftSet("session-1")

	_, _, err := f.service.StageDraft(context.Background(), set, DraftSlotInput{
		ProviderID: "provider-1",
		Date:       day(2025, 9, 20),
		StartTime:  mustTime(t, "15:00"),
		EndTime:    mustTime(t, "14:00"),
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", util.ToDomainError(err).Code)

	_, _, err = f.service.StageDraft(context.Background(), set, DraftSlotInput{
		Date:      day(2025, 9, 20),
		StartTime: mustTime(t, "14:00"),
		EndTime:   mustTime(t, "15:00"),
	})
	require.Error(t, err)
}

func TestPublishIsAllOrNothing(t *testing.T) {
	f := newServiceFixture()
	date := day(2025, 9, 20)

	// Another session already published 14:00-15:00.
	first := domain.NewDraftSet("session-1")
	stageOne(t, f, first, "provider-1", date, "14:00", "15:00")
	publish(t, f, first, "provider-1", domain.RoleProvider)
	require.Len(t, f.slots.slots, 1)

	// A batch with one clean slot and one conflicting slot persists nothing.
	second := domain.NewDraftSet("session-2")
	stageOne(t, f, second, "provider-1", date, "09:00", "10:00")
	second.Add(domain.DraftSlot{
		ProviderID: "provider-1",
		Date:       date,
		StartTime:  mustTime(t, "14:30"),
		EndTime:    mustTime(t, "15:30"),
	})

	actor := "provider-1"
	published, conflicts, err := f.service.PublishDrafts(context.Background(), second, &actor, domain.RoleProvider)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Empty(t, published)

	assert.Len(t, f.slots.slots, 1, "no partial writes")
	assert.Len(t, second.Drafts, 2, "staged set kept for correction")
}

func TestPublishEmptySetFails(t *testing.T) {
	f := newServiceFixture()
	actor := "provider-1"
	_, _, err := f.service.PublishDrafts(context.Background(), domain.NewDraftSet("session-1"), &actor, domain.RoleProvider)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", util.ToDomainError(err).Code)
}

func TestTransitionBookingBindsRequester(t *testing.T) {
	f := newServiceFixture()
	set := domain.NewDraftSet("session-1")
	stageOne(t, f, set, "provider-1", day(2025, 9, 20), "14:00", "15:00")
	published := publish(t, f, set, "provider-1", domain.RoleProvider)
	slotID := published[0].ID

	requester := "requester-1"
	slot, err := f.service.TransitionSlot(context.Background(), slotID, domain.SlotStatusPending, &requester, domain.RoleRequester)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotStatusPending, slot.Status)
	require.NotNil(t, slot.RequesterID)
	assert.Equal(t, requester, *slot.RequesterID)
	assert.Equal(t, domain.RoleRequester, slot.UpdatedByRole)
	assert.Equal(t, domain.RoleProvider, slot.CreatedByRole, "created stamps immutable")

	booked := f.dispatcher.published[len(f.dispatcher.published)-1]
	assert.Equal(t, events.EventSlotBooked, booked.Type)
}

func TestTransitionRejectsTerminalSlot(t *testing.T) {
	f := newServiceFixture()
	set := domain.NewDraftSet("session-1")
	stageOne(t, f, set, "provider-1", day(2025, 9, 20), "14:00", "15:00")
	published := publish(t, f, set, "provider-1", domain.RoleProvider)
	slotID := published[0].ID

	provider := "provider-1"
	_, err := f.service.TransitionSlot(context.Background(), slotID, domain.SlotStatusCancelled, &provider, domain.RoleProvider)
	require.NoError(t, err)

	_, err = f.service.TransitionSlot(context.Background(), slotID, domain.SlotStatusAvailable, &provider, domain.RoleProvider)
	require.Error(t, err)
	assert.Equal(t, "INVALID_TRANSITION", util.ToDomainError(err).Code)
}

func TestUpdateSlotReschedules(t *testing.T) {
	f := newServiceFixture()
	set := domain.NewDraftSet("session-1")
	stageOne(t, f, set, "provider-1", day(2025, 9, 20), "14:00", "15:00")
	published := publish(t, f, set, "provider-1", domain.RoleProvider)
	slotID := published[0].ID

	provider := "provider-1"
	newStart := mustTime(t, "16:00")
	newEnd := mustTime(t, "17:00")
	slot, conflicts, err := f.service.UpdateSlot(context.Background(), slotID, SlotUpdateInput{
		StartTime: &newStart,
		EndTime:   &newEnd,
	}, &provider, domain.RoleProvider)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	assert.Equal(t, newStart, slot.StartTime)
	assert.Equal(t, newEnd, slot.EndTime)
	assert.True(t, slot.UpdatedAt.After(slot.CreatedAt) || slot.UpdatedAt.Equal(slot.CreatedAt))
}

func TestUpdateSlotDetectsOverlapExcludingSelf(t *testing.T) {
	f := newServiceFixture()
	set := domain.NewDraftSet("session-1")
	date := day(2025, 9, 20)
	stageOne(t, f, set, "provider-1", date, "14:00", "15:00")
	stageOne(t, f, set, "provider-1", date, "16:00", "17:00")
	published := publish(t, f, set, "provider-1", domain.RoleProvider)
	require.Len(t, published, 2)

	provider := "provider-1"

	// Widening a slot within its own interval is fine.
	newEnd := mustTime(t, "15:30")
	_, conflicts, err := f.service.UpdateSlot(context.Background(), published[0].ID, SlotUpdateInput{
		EndTime: &newEnd,
	}, &provider, domain.RoleProvider)
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	// Colliding with the sibling slot is rejected without persisting.
	badEnd := mustTime(t, "16:30")
	_, conflicts, err = f.service.UpdateSlot(context.Background(), published[0].ID, SlotUpdateInput{
		EndTime: &badEnd,
	}, &provider, domain.RoleProvider)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, published[1].ID, conflicts[0].SlotID)

	current, err := f.service.GetSlot(context.Background(), published[0].ID)
	require.NoError(t, err)
	assert.Equal(t, mustTime(t, "15:30"), current.EndTime, "rejected update not applied")
}

func TestUpdateTerminalSlotRejected(t *testing.T) {
	f := newServiceFixture()
	set := domain.NewDraftSet("session-1")
	stageOne(t, f, set, "provider-1", day(2025, 9, 20), "14:00", "15:00")
	published := publish(t, f, set, "provider-1", domain.RoleProvider)
	slotID := published[0].ID

	provider := "provider-1"
	_, err := f.service.TransitionSlot(context.Background(), slotID, domain.SlotStatusCancelled, &provider, domain.RoleProvider)
	require.NoError(t, err)

	note := "late note"
	_, _, err = f.service.UpdateSlot(context.Background(), slotID, SlotUpdateInput{Note: &note}, &provider, domain.RoleProvider)
	require.Error(t, err)
	assert.Equal(t, "INVALID_TRANSITION", util.ToDomainError(err).Code)
}

func TestSoftDeleteExcludesFromOverlapAndMutation(t *testing.T) {
	f := newServiceFixture()
	set := domain.NewDraftSet("session-1")
	date := day(2025, 9, 20)
	stageOne(t, f, set, "provider-1", date, "14:00", "15:00")
	published := publish(t, f, set, "provider-1", domain.RoleProvider)
	slotID := published[0].ID

	provider := "provider-1"
	require.NoError(t, f.service.SoftDeleteSlot(context.Background(), slotID, &provider, domain.RoleProvider))

	// The interval is free again.
	replacement := domain.NewDraftSet("session-2")
	stageOne(t, f, replacement, "provider-1", date, "14:00", "15:00")

	// The deleted row stays readable with its stamps.
	slot, err := f.service.GetSlot(context.Background(), slotID)
	require.NoError(t, err)
	assert.True(t, slot.Deleted())
	require.NotNil(t, slot.DeletedBy)
	assert.Equal(t, provider, *slot.DeletedBy)
	require.NotNil(t, slot.DeletedByRole)
	assert.Equal(t, domain.RoleProvider, *slot.DeletedByRole)

	// But it no longer accepts mutations.
	err = f.service.SoftDeleteSlot(context.Background(), slotID, &provider, domain.RoleProvider)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", util.ToDomainError(err).Code)

	_, err = f.service.TransitionSlot(context.Background(), slotID, domain.SlotStatusPending, &provider, domain.RoleRequester)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", util.ToDomainError(err).Code)
}

func TestDiscardDraftsLeavesPersistedAlone(t *testing.T) {
	f := newServiceFixture()
	set := domain.NewDraftSet("session-1")
	stageOne(t, f, set, "provider-1", day(2025, 9, 20), "14:00", "15:00")

	f.service.DiscardDrafts(set)
	assert.True(t, set.Empty())
	assert.Equal(t, domain.DraftSetEmpty, set.State)
	assert.Empty(t, f.slots.slots)
}

func TestGetSlotNotFound(t *testing.T) {
	f := newServiceFixture()
	_, err := f.service.GetSlot(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", util.ToDomainError(err).Code)
}

func TestListHistoryTracksLifecycle(t *testing.T) {
	f := newServiceFixture()
	set := domain.NewDraftSet("session-1")
	stageOne(t, f, set, "provider-1", day(2025, 9, 20), "14:00", "15:00")
	published := publish(t, f, set, "provider-1", domain.RoleProvider)
	slotID := published[0].ID

	requester := "requester-1"
	_, err := f.service.TransitionSlot(context.Background(), slotID, domain.SlotStatusPending, &requester, domain.RoleRequester)
	require.NoError(t, err)

	entries, err := f.service.ListHistory(context.Background(), slotID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ChangeTypePublish, entries[0].ChangeType)
	assert.Equal(t, domain.ChangeTypeStatus, entries[1].ChangeType)
	require.NotNil(t, entries[1].ChangedByID)
	assert.Equal(t, requester, *entries[1].ChangedByID)
	assert.Equal(t, domain.RoleRequester, entries[1].ChangedByRole)
}
