package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pet-adoption/internal/api/http/handlers"
	"github.com/spec-kit/pet-adoption/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Pets           *handlers.PetsHandler
	Adoptions      *handlers.AdoptionsHandler
	AuthMiddleware *auth.AuthMiddleware
	// UploadsPrefix and UploadsDir serve locally stored images; empty disables it.
	UploadsPrefix string
	UploadsDir    string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	if cfg.UploadsPrefix != "" && cfg.UploadsDir != "" {
		app.Static(cfg.UploadsPrefix, cfg.UploadsDir, fiber.Static{Browse: false})
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	authenticated := cfg.AuthMiddleware.Handle

	pets := app.Group("/pets")
	pets.Get("/", cfg.Pets.List)
	pets.Get("/:id", cfg.Pets.Get)
	pets.Post("/", authenticated, auth.Require(auth.CapabilityPetsManage), cfg.Pets.Create)
	pets.Put("/:id", authenticated, auth.Require(auth.CapabilityPetsManage), cfg.Pets.Update)
	pets.Delete("/:id", authenticated, auth.Require(auth.CapabilityPetsManage), cfg.Pets.Delete)

	adoptions := app.Group("/adoptions", authenticated)
	adoptions.Get("/me", auth.Require(auth.CapabilityAdoptionReadOwn), cfg.Adoptions.ListMine)
	adoptions.Get("/", auth.Require(auth.CapabilityAdoptionReadAll), cfg.Adoptions.ListAll)
	adoptions.Post("/:petId", auth.Require(auth.CapabilityAdoptionApply), cfg.Adoptions.Apply)
	adoptions.Put("/:id", auth.Require(auth.CapabilityAdoptionDecide), cfg.Adoptions.Decide)
}
