package handler

import (
	"github.com/gofiber/fiber/v2"

	"studioapi/internal/service"
)

// SectionStories returns the stories a section references, in section order.
func SectionStories(svc service.SectionStories) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return invalidID(c)
		}
		stories, err := svc.Stories(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"data": stories})
	}
}
