package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/pkg/util"
)

func TestInitialStatus(t *testing.T) {
	status, err := InitialStatus(domain.RoleProvider)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotStatusAvailable, status)

	status, err = InitialStatus(domain.RoleRequester)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotStatusPending, status)

	status, err = InitialStatus(domain.RoleSystem)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotStatusAvailable, status)

	_, err = InitialStatus(domain.ActorRole("ADMIN"))
	assert.Error(t, err)
}

func TestTransitionAllowed(t *testing.T) {
	cases := []struct {
		current domain.SlotStatus
		next    domain.SlotStatus
		role    domain.ActorRole
	}{
		{domain.SlotStatusAvailable, domain.SlotStatusPending, domain.RoleRequester},
		{domain.SlotStatusAvailable, domain.SlotStatusCancelled, domain.RoleProvider},
		{domain.SlotStatusPending, domain.SlotStatusAccepted, domain.RoleProvider},
		{domain.SlotStatusPending, domain.SlotStatusRejected, domain.RoleProvider},
		{domain.SlotStatusPending, domain.SlotStatusCancelled, domain.RoleRequester},
		{domain.SlotStatusAccepted, domain.SlotStatusCompleted, domain.RoleProvider},
		{domain.SlotStatusAccepted, domain.SlotStatusCancelled, domain.RoleRequester},
		{domain.SlotStatusAvailable, domain.SlotStatusPending, domain.RoleSystem},
		{domain.SlotStatusAccepted, domain.SlotStatusCompleted, domain.RoleSystem},
	}
	for _, tc := range cases {
		assert.NoError(t, Transition(tc.current, tc.next, tc.role),
			"%s -> %s as %s", tc.current, tc.next, tc.role)
	}
}

func TestTransitionRejectsUnknownEdge(t *testing.T) {
	cases := []struct {
		current domain.SlotStatus
		next    domain.SlotStatus
	}{
		{domain.SlotStatusAvailable, domain.SlotStatusAccepted},
		{domain.SlotStatusAvailable, domain.SlotStatusCompleted},
		{domain.SlotStatusPending, domain.SlotStatusAvailable},
		{domain.SlotStatusAccepted, domain.SlotStatusPending},
	}
	for _, tc := range cases {
		err := Transition(tc.current, tc.next, domain.RoleSystem)
		require.Error(t, err, "%s -> %s", tc.current, tc.next)
		domainErr := util.ToDomainError(err)
		assert.Equal(t, "INVALID_TRANSITION", domainErr.Code)
		assert.Equal(t, string(tc.current), domainErr.Details["current"])
		assert.Equal(t, string(tc.next), domainErr.Details["attempted"])
	}
}

func TestTerminalStatusesAdmitNoTransition(t *testing.T) {
	terminals := []domain.SlotStatus{
		domain.SlotStatusRejected,
		domain.SlotStatusCancelled,
		domain.SlotStatusCompleted,
	}
	targets := []domain.SlotStatus{
		domain.SlotStatusDraft,
		domain.SlotStatusAvailable,
		domain.SlotStatusPending,
		domain.SlotStatusAccepted,
		domain.SlotStatusRejected,
		domain.SlotStatusCancelled,
		domain.SlotStatusCompleted,
	}
	for _, current := range terminals {
		for _, next := range targets {
			err := Transition(current, next, domain.RoleSystem)
			assert.Error(t, err, "%s -> %s", current, next)
		}
	}
}

func TestTransitionRejectsWrongRole(t *testing.T) {
	// A requester cannot resolve their own request.
	err := Transition(domain.SlotStatusPending, domain.SlotStatusAccepted, domain.RoleRequester)
	require.Error(t, err)
	var domainErr *util.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "FORBIDDEN", domainErr.Code)

	err = Transition(domain.SlotStatusAvailable, domain.SlotStatusCancelled, domain.RoleRequester)
	assert.Error(t, err)
}
