package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	authhttp "agency-cms/internal/auth/adapter/http"
	authconfig "agency-cms/internal/auth/config"
	"agency-cms/internal/di"
	"agency-cms/internal/shared/config"
	"agency-cms/internal/shared/logger"
	"agency-cms/internal/shared/web"
	visitorconfig "agency-cms/internal/visitor/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	appLogger := logger.NewLogger().WithComponent("server")

	cfg, err := config.Load()
	if err != nil {
		appLogger.Fatalf("Failed to load configuration: %v", err)
	}
	authCfg, err := authconfig.LoadConfig()
	if err != nil {
		appLogger.Fatalf("Failed to load auth configuration: %v", err)
	}
	visitorCfg, err := visitorconfig.LoadConfig()
	if err != nil {
		appLogger.Fatalf("Failed to load visitor configuration: %v", err)
	}

	ctx := context.Background()
	container := di.NewContainer(cfg, appLogger)
	if err := container.Connect(ctx); err != nil {
		appLogger.Fatalf("Failed to connect: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			appLogger.Errorf("Failed to close connections: %v", err)
		}
	}()

	steps := []struct {
		name string
		init func() error
	}{
		{"auth", func() error { return container.InitializeAuth(ctx, authCfg) }},
		{"visitor", func() error { return container.InitializeVisitor(ctx, visitorCfg) }},
		{"content", func() error { return container.InitializeContent(ctx) }},
		{"site", func() error { return container.InitializeSite(ctx) }},
	}
	for _, step := range steps {
		if err := step.init(); err != nil {
			appLogger.Fatalf("Failed to initialize %s module: %v", step.name, err)
		}
		appLogger.Infof("%s module initialized", step.name)
	}

	created, err := container.AuthModule.Bootstrap(ctx)
	if err != nil {
		appLogger.Fatalf("Failed to bootstrap admin: %v", err)
	}
	if created {
		appLogger.Infof("Bootstrap admin %s created", authCfg.AdminEmail)
	}

	app := fiber.New(fiber.Config{
		AppName:      "Agency CMS API",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: web.NewErrorHandler(appLogger),
	})

	app.Use(recover.New())
	app.Use(authhttp.RequestID())
	app.Use(authhttp.RequestContext())
	app.Use(authhttp.CORS(cfg.Server.CORSOrigins))
	app.Use(authhttp.SecurityHeaders())

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		if err := container.HealthCheck(healthCtx); err != nil {
			appLogger.Errorf("Health check failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "UNHEALTHY",
				"message": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status":    "HEALTHY",
			"timestamp": time.Now().UTC(),
			"cache":     container.Redis != nil,
		})
	})

	if err := container.RegisterRoutes(app.Group("/api")); err != nil {
		appLogger.Fatalf("Failed to register routes: %v", err)
	}

	addr := cfg.Server.Addr()
	appLogger.Infof("Starting HTTP server on %s", addr)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			appLogger.Errorf("Server stopped: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("Received %v, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("Server forced to shutdown: %v", err)
		}
	}
	appLogger.Info("Server stopped")
}
