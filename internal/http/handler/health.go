package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"studioapi/internal/http/middleware"
)

// Pinger is satisfied by *sql.DB, database.MongoPinger and cache.Redis.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthCheck reports healthy only when every dependency answers a ping.
func HealthCheck(deps ...Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		for _, p := range deps {
			if err := p.PingContext(ctx); err != nil {
				c.Locals(middleware.ErrorLocalKey, err)
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe answers 200 while the process is serving.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
