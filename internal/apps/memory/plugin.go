package memory

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bensalemboualem/ifactory-school/internal/apps"
	"github.com/bensalemboualem/ifactory-school/internal/models"
	"github.com/bensalemboualem/ifactory-school/internal/storage/postgres"
)

// MemoryPlugin serves the school gallery: memories with an attached photo or
// video.
type MemoryPlugin struct{}

func New() *MemoryPlugin {
	return &MemoryPlugin{}
}

func (p *MemoryPlugin) ID() string { return "memories" }

func (p *MemoryPlugin) Kind() models.ContentKind { return models.KindMemory }

func (p *MemoryPlugin) Models() []any {
	return postgres.Models()
}

func (p *MemoryPlugin) RegisterRoutes(router fiber.Router, deps apps.Deps) {
	apps.MountContent(router, p.ID(), p.Kind(), deps)
}
