package apps

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bensalemboualem/ifactory-school/internal/handlers"
	"github.com/bensalemboualem/ifactory-school/internal/models"
	"github.com/bensalemboualem/ifactory-school/internal/services"
)

// Plugin defines the interface every content module must implement.
type Plugin interface {
	// ID returns the unique module identifier, also its route prefix.
	ID() string

	// Kind is the content kind the module serves.
	Kind() models.ContentKind

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []any

	// RegisterRoutes mounts module routes on the given Fiber group.
	// The group is already prefixed with /api/p and requires a valid JWT.
	RegisterRoutes(router fiber.Router, deps Deps)
}

// Deps are the shared services handed to every module.
type Deps struct {
	Content  *services.ContentService
	Comments *services.CommentService
	// BasePath is the prefix modules are mounted under, set by routes.Setup.
	BasePath string
}

// MountContent registers the routes shared by every content kind under /<id>.
func MountContent(router fiber.Router, id string, kind models.ContentKind, deps Deps) {
	router = router.Group("/" + id)
	posts := handlers.NewContentHandler(deps.Content, kind, deps.BasePath+"/"+id)
	comments := handlers.NewCommentHandler(deps.Comments, kind)

	router.Get("/", posts.List)
	router.Post("/", posts.Create)
	router.Get("/:id", posts.Get)
	router.Put("/:id", posts.Update)
	router.Delete("/:id", posts.Delete)
	router.Post("/:id/status", posts.ChangeStatus)
	router.Get("/:id/media", posts.Media)

	router.Get("/:id/comments", comments.Thread)
	router.Post("/:id/comments", comments.Create)
	router.Delete("/:id/comments/:commentId", comments.Delete)
}
