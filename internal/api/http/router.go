package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ValerioMC/smart-ledger-be/internal/api/http/handlers"
	"github.com/ValerioMC/smart-ledger-be/internal/auth"
	"github.com/ValerioMC/smart-ledger-be/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	BasePath       string
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Transactions   *handlers.TransactionsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	root := app.Group(cfg.BasePath)

	root.Get("/health/live", cfg.Health.Live)
	root.Get("/health/ready", cfg.Health.Ready)

	authGroup := root.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/health", cfg.Health.AuthHealth)

	ledger := root.Group("/transactions", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(domain.RoleUser, domain.RoleAdmin))
	ledger.Post("/", cfg.Transactions.Create)
	ledger.Get("/", cfg.Transactions.List)
	ledger.Get("/type/:type", cfg.Transactions.ListByType)
	ledger.Get("/date-range", cfg.Transactions.ListByDateRange)
	ledger.Get("/:id", cfg.Transactions.Get)
	ledger.Put("/:id", cfg.Transactions.Update)
	ledger.Delete("/:id", cfg.Transactions.Delete)
}
