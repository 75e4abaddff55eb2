package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/api/http/handlers"
	"github.com/spec-kit/ticket-tracker/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
	// AuthRateLimit guards the unauthenticated /auth endpoints. Nil disables it.
	AuthRateLimit fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	limit := cfg.AuthRateLimit
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}
	authenticated := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAnyRole()}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", limit, cfg.Auth.Register)
	authGroup.Post("/login", limit, cfg.Auth.Login)
	authGroup.Post("/refresh", limit, cfg.Auth.Refresh)
	authGroup.Get("/me", append(authenticated, cfg.Auth.Me)...)

	tickets := app.Group("/tickets", authenticated...)
	tickets.Post("/create", auth.RequireAdmin(), cfg.Tickets.Create)
	tickets.Put("/edit/:id", auth.RequireAdmin(), cfg.Tickets.Edit)
	tickets.Put("/update-status", cfg.Tickets.UpdateStatus)
	tickets.Get("/allTickets", auth.RequireAdmin(), cfg.Tickets.ListAll)
	tickets.Get("/my-tickets", cfg.Tickets.ListMine)
	tickets.Get("/details/:id", cfg.Tickets.Get)
	tickets.Get("/history/:id", cfg.Tickets.History)

	users := app.Group("/users", authenticated...)
	users.Get("/allUsers", auth.RequireAdmin(), cfg.Users.List)
}
