package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/booking-service/internal/domain"
)

func fixedRecorder(ts time.Time) *AuditRecorder {
	return &AuditRecorder{now: func() time.Time { return ts }}
}

func TestStampCreateMirrorsIntoUpdated(t *testing.T) {
	ts := time.Date(2025, 9, 20, 10, 0, 0, 0, time.UTC)
	recorder := fixedRecorder(ts)
	actor := "provider-1"

	slot := &domain.TimeSlot{}
	recorder.StampCreate(slot, &actor, domain.RoleProvider)

	assert.Equal(t, ts, slot.CreatedAt)
	require.NotNil(t, slot.CreatedBy)
	assert.Equal(t, actor, *slot.CreatedBy)
	assert.Equal(t, domain.RoleProvider, slot.CreatedByRole)

	assert.Equal(t, slot.CreatedAt, slot.UpdatedAt)
	assert.Equal(t, slot.CreatedBy, slot.UpdatedBy)
	assert.Equal(t, slot.CreatedByRole, slot.UpdatedByRole)

	assert.Nil(t, slot.DeletedAt)
	assert.Nil(t, slot.DeletedBy)
	assert.Nil(t, slot.DeletedByRole)
}

func TestStampCreateSystemActor(t *testing.T) {
	recorder := fixedRecorder(time.Date(2025, 9, 20, 10, 0, 0, 0, time.UTC))

	slot := &domain.TimeSlot{}
	recorder.StampCreate(slot, nil, domain.RoleSystem)

	assert.Nil(t, slot.CreatedBy)
	assert.Equal(t, domain.RoleSystem, slot.CreatedByRole)
	assert.Nil(t, slot.UpdatedBy)
	assert.Equal(t, domain.RoleSystem, slot.UpdatedByRole)
}

func TestStampUpdatePreservesCreated(t *testing.T) {
	created := time.Date(2025, 9, 20, 10, 0, 0, 0, time.UTC)
	updated := created.Add(2 * time.Hour)
	provider := "provider-1"
	requester := "requester-1"

	slot := &domain.TimeSlot{}
	fixedRecorder(created).StampCreate(slot, &provider, domain.RoleProvider)
	fixedRecorder(updated).StampUpdate(slot, &requester, domain.RoleRequester)

	assert.Equal(t, created, slot.CreatedAt)
	assert.Equal(t, provider, *slot.CreatedBy)
	assert.Equal(t, domain.RoleProvider, slot.CreatedByRole)

	assert.Equal(t, updated, slot.UpdatedAt)
	assert.Equal(t, requester, *slot.UpdatedBy)
	assert.Equal(t, domain.RoleRequester, slot.UpdatedByRole)

	assert.Nil(t, slot.DeletedAt)
}

func TestStampSoftDeleteTouchesOnlyDeleted(t *testing.T) {
	created := time.Date(2025, 9, 20, 10, 0, 0, 0, time.UTC)
	deleted := created.Add(24 * time.Hour)
	provider := "provider-1"

	slot := &domain.TimeSlot{}
	fixedRecorder(created).StampCreate(slot, &provider, domain.RoleProvider)
	fixedRecorder(deleted).StampSoftDelete(slot, nil, domain.RoleSystem)

	assert.Equal(t, created, slot.CreatedAt)
	assert.Equal(t, created, slot.UpdatedAt)

	require.NotNil(t, slot.DeletedAt)
	assert.Equal(t, deleted, *slot.DeletedAt)
	assert.Nil(t, slot.DeletedBy)
	require.NotNil(t, slot.DeletedByRole)
	assert.Equal(t, domain.RoleSystem, *slot.DeletedByRole)
	assert.True(t, slot.Deleted())
}
