package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/bensalemboualem/ifactory-school/internal/apps"
	"github.com/bensalemboualem/ifactory-school/internal/apps/forum"
	"github.com/bensalemboualem/ifactory-school/internal/apps/memory"
	"github.com/bensalemboualem/ifactory-school/internal/authz"
	"github.com/bensalemboualem/ifactory-school/internal/config"
	"github.com/bensalemboualem/ifactory-school/internal/database"
	"github.com/bensalemboualem/ifactory-school/internal/handlers"
	"github.com/bensalemboualem/ifactory-school/internal/logging"
	"github.com/bensalemboualem/ifactory-school/internal/media"
	"github.com/bensalemboualem/ifactory-school/internal/middleware"
	"github.com/bensalemboualem/ifactory-school/internal/routes"
	"github.com/bensalemboualem/ifactory-school/internal/services"
	"github.com/bensalemboualem/ifactory-school/internal/storage/postgres"
	"github.com/bensalemboualem/ifactory-school/internal/tenant"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	level := logging.ParseLevel(cfg.LogLevel)
	logging.Setup(level)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// School registry
	registry, err := tenant.LoadFromFile(cfg.SchoolsConfigPath)
	if err != nil {
		slog.Error("failed to load school registry", "path", cfg.SchoolsConfigPath, "error", err)
		os.Exit(1)
	}
	slog.Info("school registry loaded", "schools", len(registry.All()))

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.MigrateCore(); err != nil {
		slog.Error("core migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(logging.GormSink{DB: database.DB}, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.StdoutHandler(level),
		pgLogHandler,
	)))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetentionDays, cleanupDone)

	// Media storage
	mediaStore, err := media.NewMinIOStore(context.Background(), media.MinIOConfig{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
	})
	if err != nil {
		slog.Error("media storage unavailable", "endpoint", cfg.MinIOEndpoint, "error", err)
		os.Exit(1)
	}

	// Services
	checker := authz.NewRoleChecker(registry)
	store := postgres.New(database.DB)
	authService := services.NewAuthService(database.DB, cfg, checker)
	contentService := services.NewContentService(store, mediaStore, checker, cfg.MediaMaxBytes, cfg.MediaURLTTL)
	commentService := services.NewCommentService(store, checker, services.NewContentFilter(nil))

	for _, school := range registry.All() {
		if err := authService.EnsureBootstrapAdmin(context.Background(), school.SchoolID, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
			slog.Error("bootstrap admin failed", "school_id", school.SchoolID, "error", err)
			os.Exit(1)
		}
	}

	// Content modules
	plugins := []apps.Plugin{
		forum.New(),
		memory.New(),
	}
	for _, p := range plugins {
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(models); err != nil {
				slog.Error("plugin migration failed", "plugin", p.ID(), "error", err)
				os.Exit(1)
			}
			slog.Info("plugin migrated", "plugin", p.ID(), "models", len(models))
		}
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    int(cfg.MediaMaxBytes) + 1<<20,
		ErrorHandler: customErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		return c.Next()
	})
	app.Use(middleware.TenantMiddleware(registry))

	routes.Setup(app, cfg, registry, checker,
		routes.Handlers{
			Auth:   handlers.NewAuthHandler(authService),
			Health: handlers.NewHealthHandler(registry, database.Ping),
		},
		apps.Deps{Content: contentService, Comments: commentService},
		plugins,
	)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.ErrorContext(c.UserContext(), "unhandled server error",
			"method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
