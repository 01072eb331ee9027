package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studioapi/internal/config"
	"studioapi/internal/http/middleware"
	"studioapi/internal/service"
	"studioapi/internal/theme"
)

// Deps are the services the HTTP layer is built from.
type Deps struct {
	Auth       service.Auth
	AuthConfig config.AuthConfig
	Content    []Registrar
	Media      service.Media
	Settings   service.Settings
	Sections   service.SectionStories
	Themes     *theme.Registry
	Health     []Pinger
	// Gatherer backs /metrics. Nil leaves the route unregistered.
	Gatherer prometheus.Gatherer
	// LoginLimiter guards POST /api/auth/login when set.
	LoginLimiter fiber.Handler
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.Health...))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	// docs.SwaggerInfo is configured once at startup; requests only read it.
	app.Get("/swagger/*", swagger.HandlerDefault)

	guard := middleware.RequireAdmin(d.Auth, d.AuthConfig.CookieName)
	api := app.Group("/api")

	authGroup := api.Group("/auth")
	login := []fiber.Handler{Login(d.Auth, d.AuthConfig)}
	if d.LoginLimiter != nil {
		login = append([]fiber.Handler{d.LoginLimiter}, login...)
	}
	authGroup.Post("/login", login...)
	authGroup.Post("/logout", guard, Logout(d.Auth, d.AuthConfig))
	authGroup.Get("/me", guard, Me(d.Auth))

	admins := api.Group("/admins", guard)
	admins.Get("", ListAdmins(d.Auth))
	admins.Post("", CreateAdmin(d.Auth))
	admins.Get("/:id", GetAdmin(d.Auth))
	admins.Put("/:id", UpdateAdmin(d.Auth))
	admins.Patch("/:id", UpdateAdmin(d.Auth))
	admins.Delete("/:id", DeleteAdmin(d.Auth))

	if d.Media != nil {
		api.Post("/media", guard, UploadMedia(d.Media))
		api.Delete("/media", guard, DeleteMedia(d.Media))
	}

	if d.Settings != nil {
		api.Get("/settings", GetSettings(d.Settings))
		api.Put("/settings", guard, UpdateSettings(d.Settings))
	}

	if d.Themes != nil {
		api.Get("/themes", ListThemes(d.Themes))
		api.Get("/themes/:category", LookupTheme(d.Themes))
	}

	if d.Sections != nil {
		api.Get("/sections/:id/stories", SectionStories(d.Sections))
	}

	for _, r := range d.Content {
		r.Register(api, guard)
	}
}
