package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bensalemboualem/ifactory-school/internal/dto"
	"github.com/bensalemboualem/ifactory-school/internal/tenant"
)

type HealthHandler struct {
	registry *tenant.Registry
	ping     func() error
}

func NewHealthHandler(registry *tenant.Registry, ping func() error) *HealthHandler {
	return &HealthHandler{registry: registry, ping: ping}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status, dbStatus := "ok", "ok"
	code := fiber.StatusOK
	if err := h.ping(); err != nil {
		status, dbStatus = "degraded", "unhealthy"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(dto.HealthResponse{
		Status:      status,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		DB:          dbStatus,
		SchoolCount: len(h.registry.All()),
	})
}
