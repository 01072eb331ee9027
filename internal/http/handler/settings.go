package handler

import (
	"github.com/gofiber/fiber/v2"

	"studioapi/internal/model"
	"studioapi/internal/service"
)

// GetSettings returns the site settings, or defaults when none are stored.
func GetSettings(svc service.Settings) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := svc.Get(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(s)
	}
}

// UpdateSettings replaces the site settings.
func UpdateSettings(svc service.Settings) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var s model.Settings
		if err := c.BodyParser(&s); err != nil {
			return invalidBody(c)
		}
		out, err := svc.Update(c.UserContext(), &s)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(out)
	}
}
