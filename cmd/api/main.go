package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"studioapi/docs"
	"studioapi/internal/app"
	"studioapi/internal/config"
	"studioapi/internal/logging"
	tracing "studioapi/internal/otel"
)

const shutdownTimeout = 10 * time.Second

// @title Studio API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, logging.WithLocation(cfg.Location()))
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server_failed", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "studioapi", logging.Component(logger, "otel"))
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	if err := store.Migrate(ctx, logger); err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, logger, store)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if err := a.EnsureAdmin(ctx); err != nil {
		return err
	}

	docs.SwaggerInfo.Host = cfg.AppHost
	srv, err := a.Fiber()
	if err != nil {
		return err
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(addr)
	}()
	logger.Info("server_started",
		zap.String("addr", addr),
		zap.String("store", store.Driver),
		zap.String("media", cfg.Media.Driver),
	)

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server_shutting_down")
	if err := srv.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server_stopped")
	return nil
}
