package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const healthProbeTimeout = 2 * time.Second

// RegisterHealthRoutes exposes the readiness probe. Each configured backing
// store is pinged under a short deadline so a wedged dependency cannot hang
// the check; stores absent in dev mode report as skipped instead of failing.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthProbeTimeout)
		defer cancel()

		checks := fiber.Map{"postgres": "skipped", "redis": "skipped"}
		healthy := true
		if d.DB != nil {
			checks["postgres"] = "ok"
			if err := d.DB.Ping(ctx); err != nil {
				checks["postgres"] = err.Error()
				healthy = false
			}
		}
		if d.Cache != nil {
			checks["redis"] = "ok"
			if err := d.Cache.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			}
		}

		code := fiber.StatusOK
		if !healthy {
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"checks":     checks,
			"checked_at": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
