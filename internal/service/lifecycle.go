package service

import (
	"fmt"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/pkg/util"
)

// initialStatusByRole is the closed lookup table deriving a published slot's
// first status from its creator. Adding a role means editing this table.
var initialStatusByRole = map[domain.ActorRole]domain.SlotStatus{
	domain.RoleProvider:  domain.SlotStatusAvailable,
	domain.RoleRequester: domain.SlotStatusPending,
	domain.RoleSystem:    domain.SlotStatusAvailable,
}

// InitialStatus derives the first active status of a published slot from the
// publishing actor's role.
func InitialStatus(role domain.ActorRole) (domain.SlotStatus, error) {
	status, ok := initialStatusByRole[role]
	if !ok {
		return "", util.NewValidationError(fmt.Sprintf("unknown actor role %q", role), nil)
	}
	return status, nil
}

type transitionRule struct {
	next  domain.SlotStatus
	roles []domain.ActorRole
}

// allowedTransitions is the lifecycle table. Terminal statuses map to no
// rules; a published DRAFT moves through InitialStatus, so the DRAFT row only
// mirrors the role-derived outcomes.
var allowedTransitions = map[domain.SlotStatus][]transitionRule{
	domain.SlotStatusDraft: {
		{next: domain.SlotStatusAvailable, roles: []domain.ActorRole{domain.RoleProvider, domain.RoleSystem}},
		{next: domain.SlotStatusPending, roles: []domain.ActorRole{domain.RoleRequester, domain.RoleSystem}},
	},
	domain.SlotStatusAvailable: {
		{next: domain.SlotStatusPending, roles: []domain.ActorRole{domain.RoleRequester, domain.RoleSystem}},
		{next: domain.SlotStatusCancelled, roles: []domain.ActorRole{domain.RoleProvider, domain.RoleSystem}},
	},
	domain.SlotStatusPending: {
		{next: domain.SlotStatusAccepted, roles: []domain.ActorRole{domain.RoleProvider, domain.RoleSystem}},
		{next: domain.SlotStatusRejected, roles: []domain.ActorRole{domain.RoleProvider, domain.RoleSystem}},
		{next: domain.SlotStatusCancelled, roles: []domain.ActorRole{domain.RoleProvider, domain.RoleRequester, domain.RoleSystem}},
	},
	domain.SlotStatusAccepted: {
		{next: domain.SlotStatusCompleted, roles: []domain.ActorRole{domain.RoleProvider, domain.RoleRequester, domain.RoleSystem}},
		{next: domain.SlotStatusCancelled, roles: []domain.ActorRole{domain.RoleProvider, domain.RoleRequester, domain.RoleSystem}},
	},
	domain.SlotStatusRejected:  {},
	domain.SlotStatusCancelled: {},
	domain.SlotStatusCompleted: {},
}

// Transition validates a requested status change. It is a pure function: no
// database access, no side effects. Terminal statuses admit no transition.
// The core checks status legality and triggering role only; identity-level
// ownership is the routing layer's concern.
func Transition(current, next domain.SlotStatus, role domain.ActorRole) error {
	for _, rule := range allowedTransitions[current] {
		if rule.next != next {
			continue
		}
		for _, allowed := range rule.roles {
			if allowed == role {
				return nil
			}
		}
		return util.NewForbidden(fmt.Sprintf("role %s may not move slot from %s to %s", role, current, next))
	}
	return util.NewInvalidTransition(string(current), string(next))
}
