package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/vedispeak/internal/config"
	"github.com/noah-isme/vedispeak/internal/handler"
	"github.com/noah-isme/vedispeak/internal/middleware"
	"github.com/noah-isme/vedispeak/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler *handler.ActivityHandler
	ProgressHandler *handler.ProgressHandler
	RealtimeHandler *handler.RealtimeHandler
	HealthProbes    map[string]handler.HealthProbe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	identity := middleware.Identity(cfg.DefaultUserID)
	limiter := middleware.RateLimit("api", cfg.RateLimit, cfg.RateLimitWindow)

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activity", identity, limiter))
	}
	if deps.ProgressHandler != nil {
		deps.ProgressHandler.Register(api.Group("/progress", identity, limiter))
	}
	// The websocket keeps one long-lived request, so it is not rate limited.
	if deps.RealtimeHandler != nil {
		deps.RealtimeHandler.Register(api.Group("/realtime", identity))
	}
}
