package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/booking-service/internal/domain"
	apperrors "github.com/spec-kit/booking-service/pkg/util"
)

// RequireRole ensures the principal carries one of the allowed roles. With no
// arguments any authenticated participant passes.
func RequireRole(allowed ...domain.ActorRole) fiber.Handler {
	allowedSet := make(map[domain.ActorRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
