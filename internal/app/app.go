// Package app wires configuration, storage and services into a runnable
// server. It is shared by the API binary and the admin CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"studioapi/internal/auth"
	"studioapi/internal/cache"
	"studioapi/internal/config"
	handlers "studioapi/internal/http/handler"
	"studioapi/internal/http/middleware"
	"studioapi/internal/logging"
	"studioapi/internal/metrics"
	"studioapi/internal/model"
	"studioapi/internal/revalidate"
	"studioapi/internal/service"
	"studioapi/internal/storage"
	"studioapi/internal/theme"
)

// DefaultSettings are served until an admin saves the site settings.
var DefaultSettings = model.Settings{SiteName: "Studio"}

type pruner interface {
	Kind() string
	Retention() int
	Prune(ctx context.Context) (int, error)
}

// App holds the wired services.
type App struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Store    *Store
	Registry *prometheus.Registry

	Auth     *service.AuthService
	Media    *service.MediaService
	Settings *service.SettingsService

	metrics  *metrics.Metrics
	cache    cache.Cache
	themes   *theme.Registry
	sections service.SectionStories
	routes   []handlers.Registrar
	pruners  map[string]pruner
	health   []handlers.Pinger
	closers  []func(context.Context) error
}

// New builds every service on top of an open store. Close releases what New
// started, but not the store.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger, store *Store) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Registry: prometheus.NewRegistry(),
		pruners:  map[string]pruner{},
		health:   []handlers.Pinger{store.Pinger()},
	}

	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(a.Registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	a.metrics = m

	if a.themes, err = theme.Default(); err != nil {
		return nil, fmt.Errorf("load themes: %w", err)
	}

	if err := a.initCache(ctx); err != nil {
		return nil, err
	}
	if err := a.initServices(); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) initServices() error {
	cfg, logger, store := a.Config, a.Logger, a.Store

	media, err := a.newMediaStorage()
	if err != nil {
		return err
	}
	a.Media = service.NewMediaService(media, cfg.Media.MaxUploadBytes(), cfg.Media.UploadConcurrency, a.metrics,
		logging.Component(logger, "media"))

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL(), nil)
	if err != nil {
		return err
	}
	a.Auth = service.NewAuthService(newRepo[model.Admin](store, model.KindAdmins), tokens, a.cache,
		service.WithMetrics(a.metrics),
		service.WithLogger(logging.Component(logger, "auth")),
	)

	notifier := revalidate.New(cfg.Revalidate, logging.Component(logger, "revalidate"))
	a.Settings = service.NewSettingsService(newRepo[model.Settings](store, model.KindSettings), DefaultSettings,
		service.WithNotifier(notifier),
		service.WithMedia(a.Media),
		service.WithLogger(logging.Component(logger, "settings")),
	)

	a.registerContent(notifier)
	return nil
}

func (a *App) initCache(ctx context.Context) error {
	if url := a.Config.Cache.RedisURL; url != "" {
		r, err := cache.NewRedis(ctx, url)
		if err != nil {
			return err
		}
		a.cache = r
		a.health = append(a.health, r)
		a.closers = append(a.closers, func(context.Context) error { return r.Close() })
		return nil
	}

	mem := cache.NewMemory(nil)
	sweepCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		mem.RunSweeper(sweepCtx, time.Minute)
	}()
	a.cache = mem
	a.closers = append(a.closers, func(context.Context) error {
		cancel()
		<-done
		return nil
	})
	return nil
}

func (a *App) newMediaStorage() (storage.Storage, error) {
	var (
		store storage.Storage
		err   error
	)
	switch a.Config.Media.Driver {
	case config.MediaCloudinary:
		store, err = storage.NewCloudinary(a.Config.Media.Cloudinary)
	case config.MediaMinIO:
		store, err = storage.NewMinIO(a.Config.Media.MinIO)
	default:
		err = fmt.Errorf("unsupported MEDIA_DRIVER %q", a.Config.Media.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media storage: %w", err)
	}

	log := logging.Component(a.Logger, "storage")
	return storage.WithBreaker(store, storage.BreakerSettings{
		OnStateChange: func(name string, from, to gobreaker.State) {
			a.metrics.BreakerStateChange(name, from, to)
			log.Warn("circuit_breaker_state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}), nil
}

// addContent builds the service for one kind and registers its routes.
func addContent[T any, PT model.Entity[T]](a *App, kind string, opts ...service.Option) *service.ContentService[T, PT] {
	base := []service.Option{
		service.WithCache(a.cache, a.Config.Cache.CacheTTL()),
		service.WithMedia(a.Media),
		service.WithMetrics(a.metrics),
		service.WithLogger(logging.Component(a.Logger, "content")),
	}
	svc := service.NewContentService[T, PT](kind, newRepo[T, PT](a.Store, kind), append(base, opts...)...)
	a.routes = append(a.routes, handlers.ContentRoutes[T](svc))
	a.pruners[kind] = svc
	return svc
}

func (a *App) registerContent(n revalidate.Notifier) {
	notify := service.WithNotifier(n)
	byCategory := service.WithFilters("category_slug")
	ret := a.Config.Retention

	addContent[model.Hero](a, model.KindHero, notify, service.WithRetention(ret.Hero))
	addContent[model.About](a, model.KindAbout, notify)
	addContent[model.FooterLink](a, model.KindFooter, notify, service.WithFilters("group"))
	addContent[model.GalleryImage](a, model.KindGallery, notify, byCategory)
	addContent[model.Film](a, model.KindFilms, notify)
	addContent[model.Review](a, model.KindReviews, notify)
	addContent[model.Service](a, model.KindServices, notify)
	addContent[model.Testimonial](a, model.KindTestimonials, notify)
	addContent[model.Reel](a, model.KindReels, notify, service.WithRetention(ret.Reels))
	addContent[model.WeddingGallery](a, model.KindWeddingGallery, notify, byCategory)
	addContent[model.Wedding](a, model.KindWeddings, notify, byCategory)

	storyRepo := newRepo[model.Story](a.Store, model.KindStories)
	addContent[model.Story](a, model.KindStories, notify, byCategory)

	sections := addContent[model.Section](a, model.KindSections, notify)
	sections.OnSave(service.StoryRefs(storyRepo))
	a.sections = service.NewSectionStories(sections, storyRepo)
}

// PrunableKinds lists every content kind with a retention limit.
func (a *App) PrunableKinds() []string {
	var out []string
	for kind, p := range a.pruners {
		if p.Retention() > 0 {
			out = append(out, kind)
		}
	}
	sort.Strings(out)
	return out
}

// Prune trims the named kinds to their retention limit. No kinds means every
// kind that has one.
func (a *App) Prune(ctx context.Context, kinds ...string) (map[string]int, error) {
	if len(kinds) == 0 {
		kinds = a.PrunableKinds()
	}
	out := make(map[string]int, len(kinds))
	for _, kind := range kinds {
		p, ok := a.pruners[kind]
		if !ok {
			return out, fmt.Errorf("unknown content kind %q", kind)
		}
		n, err := p.Prune(ctx)
		if err != nil {
			return out, fmt.Errorf("prune %s: %w", kind, err)
		}
		out[kind] = n
	}
	return out, nil
}

// EnsureAdmin creates the configured bootstrap admin when it is missing.
func (a *App) EnsureAdmin(ctx context.Context) error {
	c := a.Config.Auth
	if c.AdminEmail == "" {
		return nil
	}
	created, err := a.Auth.EnsureAdmin(ctx, service.AdminInput{Email: c.AdminEmail, Name: c.AdminName, Password: c.AdminPassword})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		a.Logger.Info("admin_bootstrapped", zap.String("email", model.NormalizeEmail(c.AdminEmail)))
	}
	return nil
}

// Fiber builds the HTTP server with middleware and every route.
func (a *App) Fiber() (*fiber.App, error) {
	cfg := a.Config
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.BodyLimitMB << 20,
		// Params and headers reach services and caches.
		Immutable: true,
	})

	prom, err := middleware.NewPrometheusMiddleware(a.Registry)
	if err != nil {
		return nil, fmt.Errorf("register http metrics: %w", err)
	}

	app.Use(recover.New())
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logging.Component(a.Logger, "http")))
	app.Use(prom.Handler())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowCredentials: cfg.CORSAllowOrigins != "*",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	handlers.RegisterRoutes(app, handlers.Deps{
		Auth:       a.Auth,
		AuthConfig: cfg.Auth,
		Content:    a.routes,
		Media:      a.Media,
		Settings:   a.Settings,
		Sections:   a.sections,
		Themes:     a.themes,
		Health:     a.health,
		Gatherer:   a.Registry,
		LoginLimiter: middleware.LoginLimiter(cfg.Auth.LoginRateMax,
			time.Duration(cfg.Auth.LoginRateWindowSec)*time.Second),
	})
	return app, nil
}

// Close stops background work and releases the cache.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	return errors.Join(errs...)
}
