package domain

import "time"

// UserStatus represents lifecycle states for a participant account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for booking participants. Role is PROVIDER or
// REQUESTER; the SYSTEM role never maps to an account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         ActorRole
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
