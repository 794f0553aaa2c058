package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-web/internal/api/http"
	"github.com/i474232898/weather-web/internal/config"
	"github.com/i474232898/weather-web/internal/logging"
	"github.com/i474232898/weather-web/internal/scheduler"
	"github.com/i474232898/weather-web/internal/store"
	"github.com/i474232898/weather-web/internal/weather"
	"github.com/i474232898/weather-web/internal/weather/source"
)

const serviceName = "weather-web"

func main() {
	dotenvErr := config.LoadDotenv()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.Server.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if dotenvErr != nil {
		log.Debugw("no .env file loaded", "error", dotenvErr)
	}
	log.Infow("config loaded", "path", cfg.Path, "mode", cfg.Fetch.Mode, "cache_ttl", cfg.Fetch.CacheTTL)

	fetcher := newFetcher(cfg, log)

	// Core service: single cache slot in front of the configured source.
	service := weather.NewService(store.NewSlot(), fetcher, cfg.Fetch.CacheTTL)

	// Optional background refresh keeping the slot warm.
	sched := scheduler.New(service, cfg.RefreshInterval, refreshTimeout(cfg), log)
	if err := sched.Start(); err != nil {
		log.Fatalw("failed to start scheduler", "error", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// The page handler may wait for the fetcher for its full timeout.
		WriteTimeout: cfg.Fetch.Timeout + 10*time.Second,
		ErrorHandler: httpapi.NewErrorHandler(cfg.Server.ExposeErrors),
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, service, httpapi.Options{
		ExposeErrors: cfg.Server.ExposeErrors,
		Log:          log,
		Service:      serviceName,
	})

	// Start server with graceful shutdown
	go func() {
		log.Infow("listening", "addr", cfg.Server.Addr())
		if err := app.Listen(cfg.Server.Addr()); err != nil {
			log.Errorw("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("error during shutdown", "error", err)
	}
}

// newFetcher builds the source selected by the config, wrapped in a circuit
// breaker when enabled.
func newFetcher(cfg *config.AppConfig, log *zap.SugaredLogger) weather.Fetcher {
	var fetcher weather.Fetcher
	switch cfg.Fetch.Mode {
	case config.ModeSpawn:
		fetcher = source.NewSpawnSource(source.SpawnOptions{
			Binary:     cfg.Fetch.Binary,
			ConfigPath: cfg.Fetch.BinaryConfig,
			Timeout:    cfg.Fetch.Timeout,
		})
	default:
		fetcher = source.NewFileSource(cfg.Fetch.JSONPath)
	}

	if !cfg.Breaker.Enabled {
		return fetcher
	}
	return source.NewBreaker(cfg.Fetch.Mode, fetcher, source.BreakerSettings{
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: cfg.Breaker.OpenTimeout,
		OnStateChange: func(from, to string) {
			log.Warnw("weather source breaker state changed", "from", from, "to", to)
		},
	})
}

func refreshTimeout(cfg *config.AppConfig) time.Duration {
	if cfg.Fetch.Mode == config.ModeSpawn && cfg.Fetch.Timeout > 0 {
		return cfg.Fetch.Timeout + 5*time.Second
	}
	return 30 * time.Second
}
