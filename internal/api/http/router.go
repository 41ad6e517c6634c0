package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/booking-service/internal/api/http/handlers"
	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Drafts         *handlers.DraftsHandler
	Slots          *handlers.SlotsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Draft routes are registered before the
// parameterized slot routes so "/slots/drafts" never matches ":id".
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	slots := app.Group("/slots", cfg.AuthMiddleware.Handle, auth.RequireRole())

	slots.Get("/drafts", cfg.Drafts.GetDrafts)
	slots.Post("/drafts", cfg.Drafts.StageDraft)
	slots.Post("/drafts/publish", cfg.Drafts.PublishDrafts)
	slots.Delete("/drafts", cfg.Drafts.DiscardDrafts)

	slots.Get("/", cfg.Slots.ListSlots)
	slots.Get("/:id", cfg.Slots.GetSlot)
	slots.Get("/:id/history", cfg.Slots.GetSlotHistory)
	slots.Patch("/:id", auth.RequireRole(domain.RoleProvider, domain.RoleSystem), cfg.Slots.UpdateSlot)
	slots.Post("/:id/transition", cfg.Slots.TransitionSlot)
	slots.Delete("/:id", auth.RequireRole(domain.RoleProvider, domain.RoleSystem), cfg.Slots.DeleteSlot)
}
