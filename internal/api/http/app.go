package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/pet-adoption/internal/observability"
)

// AppOptions configures the fiber application.
type AppOptions struct {
	Name           string
	BodyLimit      int
	RequestTimeout time.Duration
	// CORSAllowOrigins is a comma separated origin list; empty disables CORS.
	CORSAllowOrigins string
	Logger           *zap.Logger
	Metrics          *observability.Metrics
}

// NewApp builds a fiber app with middlewares and routes registered.
func NewApp(opts AppOptions, routes RouteConfig) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:      opts.Name,
		BodyLimit:    opts.BodyLimit,
		ErrorHandler: ErrorHandler(opts.Logger, opts.Metrics),
	})
	RegisterMiddlewares(app, opts)
	RegisterRoutes(app, routes)
	return app
}
