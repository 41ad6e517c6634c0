package dto

import (
	"time"

	"github.com/spec-kit/booking-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Role     domain.ActorRole `json:"role"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
