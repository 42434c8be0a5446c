package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/bensalemboualem/ifactory-school/internal/apps"
	"github.com/bensalemboualem/ifactory-school/internal/authz"
	"github.com/bensalemboualem/ifactory-school/internal/config"
	"github.com/bensalemboualem/ifactory-school/internal/handlers"
	"github.com/bensalemboualem/ifactory-school/internal/middleware"
	"github.com/bensalemboualem/ifactory-school/internal/tenant"
)

type Handlers struct {
	Auth   *handlers.AuthHandler
	Health *handlers.HealthHandler
}

func Setup(
	app *fiber.App,
	cfg *config.Config,
	registry *tenant.Registry,
	checker authz.Checker,
	h Handlers,
	deps apps.Deps,
	plugins []apps.Plugin,
) {
	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Health (no tenant required)
	api.Get("/health", h.Health.Check)

	// Auth: stricter rate limit, 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/login", h.Auth.Login)

	protected := []fiber.Handler{middleware.JWTProtected(cfg), middleware.BindSchool(registry)}

	// Admin (JWT + moderator role)
	admin := api.Group("/admin", append(protected, middleware.ModeratorRequired(checker))...)
	admin.Post("/users", h.Auth.CreateUser)

	// Content modules
	p := api.Group("/p", protected...)
	deps.BasePath = "/api/p"
	for _, plugin := range plugins {
		plugin.RegisterRoutes(p, deps)
	}
}
