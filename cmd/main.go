package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"afi-portal/internal/di"
	portalhttp "afi-portal/internal/portal/adapter/http"
	"afi-portal/internal/portal/config"
	"afi-portal/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// multipart framing on top of the largest accepted upload
const bodyLimitMargin = 1 << 20

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewLoggerWithConfig(cfg.LogLevel, cfg.LogFormat)
	logger.SetDefault(appLogger)
	appLogger.Info("Configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.String("clinical_api", cfg.ClinicalAPIURL))

	// Initialize Dependency Injection Container
	container := di.NewContainer(cfg, appLogger)
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Error("Failed to close container", zap.Error(err))
		}
	}()

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := container.InitializePortal(initCtx); err != nil {
		appLogger.Fatal("Failed to initialize portal module", zap.Error(err))
	}
	appLogger.Info("Portal module initialized successfully")

	app := fiber.New(fiber.Config{
		AppName:                 "AFI Portal",
		EnableTrustedProxyCheck: true,
		TrustedProxies:          cfg.TrustedProxies,
		ProxyHeader:             proxyHeader(cfg.TrustedProxies),
		BodyLimit:               cfg.MaxUploadBytes + bodyLimitMargin,
		ReadTimeout:             30 * time.Second,
		WriteTimeout:            cfg.PredictionTimeout + 15*time.Second,
		IdleTimeout:             60 * time.Second,
		ErrorHandler:            portalhttp.ErrorHandler(appLogger),
	})

	app.Use(recover.New())
	app.Use(portalhttp.RequestID())
	app.Use(portalhttp.RequestContext())
	app.Use(portalhttp.RequestLogger(appLogger, container.Metrics))
	app.Use(portalhttp.SecurityHeaders())
	app.Use(portalhttp.CORS(cfg.CORSAllowOrigins))

	var ready atomic.Bool
	ready.Store(true)

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()

		if err := container.HealthCheck(healthCtx); err != nil {
			appLogger.Error("Health check failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "UNHEALTHY",
				"error":   err.Error(),
				"message": "One or more backends are unhealthy",
			})
		}
		return c.JSON(fiber.Map{
			"status":    "HEALTHY",
			"message":   "AFI Portal is running",
			"timestamp": time.Now().UTC(),
		})
	})

	app.Get("/ready", func(c *fiber.Ctx) error {
		if !ready.Load() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "SHUTTING_DOWN"})
		}
		return c.JSON(fiber.Map{"status": "READY"})
	})

	registry, err := di.GetService[*prometheus.Registry](container)
	if err != nil {
		appLogger.Fatal("Metrics registry unavailable", zap.Error(err))
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	container.GetPortalModule().RegisterRoutes(app)
	appLogger.Info("Portal routes registered")

	serverAddr := cfg.Addr()
	appLogger.Info("Starting HTTP server", zap.String("addr", serverAddr))

	// Start server in a goroutine for graceful shutdown
	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			appLogger.Error("Server failed to start", zap.Error(err))
			return
		}
	case sig := <-quit:
		appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		ready.Store(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Error("Server forced to shutdown", zap.Error(err))
		}
		appLogger.Info("HTTP server stopped")
	}
}

// proxyHeader enables X-Forwarded-For only when some proxy is trusted.
func proxyHeader(trusted []string) string {
	if len(trusted) == 0 {
		return ""
	}
	return fiber.HeaderXForwardedFor
}
