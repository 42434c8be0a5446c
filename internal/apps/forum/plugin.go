package forum

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bensalemboualem/ifactory-school/internal/apps"
	"github.com/bensalemboualem/ifactory-school/internal/models"
	"github.com/bensalemboualem/ifactory-school/internal/storage/postgres"
)

// ForumPlugin serves school forum posts. Moderators may write HTML.
type ForumPlugin struct{}

func New() *ForumPlugin {
	return &ForumPlugin{}
}

func (p *ForumPlugin) ID() string { return "forums" }

func (p *ForumPlugin) Kind() models.ContentKind { return models.KindForum }

func (p *ForumPlugin) Models() []any {
	return postgres.Models()
}

func (p *ForumPlugin) RegisterRoutes(router fiber.Router, deps apps.Deps) {
	apps.MountContent(router, p.ID(), p.Kind(), deps)
}
