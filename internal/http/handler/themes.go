package handler

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"studioapi/internal/theme"
)

type themeResponse struct {
	Category string      `json:"category"`
	Matched  bool        `json:"matched"`
	Theme    theme.Theme `json:"theme"`
}

func ListThemes(reg *theme.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": reg.All()})
	}
}

// LookupTheme resolves a category to its theme. Unknown categories get the
// default theme with matched=false.
func LookupTheme(reg *theme.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		category, err := url.PathUnescape(c.Params("category"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid category")
		}
		t, ok := reg.Lookup(category)
		return c.JSON(themeResponse{
			Category: theme.Normalize(category),
			Matched:  ok,
			Theme:    t,
		})
	}
}
