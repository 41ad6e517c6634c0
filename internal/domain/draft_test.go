package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftSetStateMachine(t *testing.T) {
	set := NewDraftSet("session-1")
	require.Equal(t, DraftSetEmpty, set.State)
	assert.True(t, set.Empty())

	set.Add(DraftSlot{
		ProviderID: "provider-1",
		Date:       time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC),
		StartTime:  14 * 60,
		EndTime:    15 * 60,
	})
	assert.Equal(t, DraftSetStaging, set.State)
	assert.False(t, set.Empty())
	assert.Len(t, set.Drafts, 1)

	set.Add(DraftSlot{
		ProviderID: "provider-1",
		Date:       time.Date(2025, 9, 21, 0, 0, 0, 0, time.UTC),
		StartTime:  9 * 60,
		EndTime:    10 * 60,
	})
	assert.Len(t, set.Drafts, 2)

	set.Discard()
	assert.Equal(t, DraftSetEmpty, set.State)
	assert.Empty(t, set.Drafts)
}
