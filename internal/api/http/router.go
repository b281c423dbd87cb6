package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/imei-service/internal/api/http/handlers"
	"github.com/spec-kit/imei-service/internal/auth"
	apperrors "github.com/spec-kit/imei-service/pkg/util"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	IMEI    *handlers.IMEIHandler
	Metrics nethttp.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	api := app.Group("/api")
	api.Get("/check-imei", auth.BearerToken(), cfg.IMEI.Check)

	app.Use(func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("Not Found")
	})
}
