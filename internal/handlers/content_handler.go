package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/bensalemboualem/ifactory-school/internal/dto"
	"github.com/bensalemboualem/ifactory-school/internal/i18n"
	"github.com/bensalemboualem/ifactory-school/internal/media"
	"github.com/bensalemboualem/ifactory-school/internal/models"
	"github.com/bensalemboualem/ifactory-school/internal/services"
	"github.com/bensalemboualem/ifactory-school/internal/tenant"
	"github.com/bensalemboualem/ifactory-school/internal/validation"
	"github.com/bensalemboualem/ifactory-school/internal/visibility"
)

// ContentHandler serves one content kind. Forums and memories each get their
// own instance. basePath is the route prefix of the kind, e.g. /api/p/forums.
type ContentHandler struct {
	service  *services.ContentService
	kind     models.ContentKind
	basePath string
}

func NewContentHandler(service *services.ContentService, kind models.ContentKind, basePath string) *ContentHandler {
	return &ContentHandler{service: service, kind: kind, basePath: basePath}
}

// mediaURL points clients at the Media route, which checks access before
// handing out a signed link.
func (h *ContentHandler) mediaURL(p *models.ContentPost) string {
	return h.basePath + "/" + p.ID.String() + "/media"
}

func (h *ContentHandler) List(c *fiber.Ctx) error {
	actor, err := tenant.GetActor(c)
	if err != nil {
		return respondError(c, err)
	}

	var params visibility.Params
	if err := c.QueryParser(&params); err != nil {
		return respondError(c, validation.Field("page", "must be a number"))
	}

	posts, page, err := h.service.List(c.UserContext(), actor, h.kind, params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Data: dto.PostListResponse{
		Posts:      dto.ToPostResponses(posts, h.mediaURL),
		Pagination: page,
	}})
}

func (h *ContentHandler) Get(c *fiber.Ctx) error {
	actor, err := tenant.GetActor(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := postID(c)
	if !ok {
		return fail(c, fiber.StatusNotFound, i18n.MsgNotFound)
	}

	post, err := h.service.Get(c.UserContext(), actor, h.kind, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Data: dto.ToPostResponse(post, h.mediaURL)})
}

func (h *ContentHandler) Create(c *fiber.Ctx) error {
	actor, err := tenant.GetActor(c)
	if err != nil {
		return respondError(c, err)
	}

	var req dto.PostRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	upload, closeFn, err := formUpload(c)
	if err != nil {
		return invalidBody(c)
	}
	defer closeFn()

	post, err := h.service.Create(c.UserContext(), actor, h.kind, &req, upload)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, dto.ToPostResponse(post, h.mediaURL), i18n.MsgCreated)
}

func (h *ContentHandler) Update(c *fiber.Ctx) error {
	actor, err := tenant.GetActor(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := postID(c)
	if !ok {
		return fail(c, fiber.StatusNotFound, i18n.MsgNotFound)
	}

	var req dto.PostRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	upload, closeFn, err := formUpload(c)
	if err != nil {
		return invalidBody(c)
	}
	defer closeFn()

	post, err := h.service.Update(c.UserContext(), actor, h.kind, id, &req, upload)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, dto.ToPostResponse(post, h.mediaURL), i18n.MsgUpdated)
}

func (h *ContentHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, err := tenant.GetActor(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := postID(c)
	if !ok {
		return fail(c, fiber.StatusNotFound, i18n.MsgNotFound)
	}

	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	post, changed, err := h.service.ChangeStatus(c.UserContext(), actor, h.kind, id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	key := i18n.MsgStatusChanged
	if !changed {
		key = i18n.MsgStatusUnchanged
	}
	return respond(c, fiber.StatusOK, dto.ToPostResponse(post, h.mediaURL), key)
}

func (h *ContentHandler) Delete(c *fiber.Ctx) error {
	actor, err := tenant.GetActor(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := postID(c)
	if !ok {
		return fail(c, fiber.StatusNotFound, i18n.MsgNotFound)
	}

	if err := h.service.Delete(c.UserContext(), actor, h.kind, id); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"deleted": true}, i18n.MsgDeleted)
}

func postID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

// formUpload returns the optional "media" file of a multipart request.
func formUpload(c *fiber.Ctx) (*media.Upload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, noop, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, err
	}
	files := form.File["media"]
	if len(files) == 0 {
		return nil, noop, nil
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return &media.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Reader:      f,
	}, func() { _ = f.Close() }, nil
}

// Media redirects to a short-lived signed link for the post's media file.
func (h *ContentHandler) Media(c *fiber.Ctx) error {
	actor, err := tenant.GetActor(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := postID(c)
	if !ok {
		return fail(c, fiber.StatusNotFound, i18n.MsgNotFound)
	}

	link, err := h.service.MediaLink(c.UserContext(), actor, h.kind, id)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Redirect(link, fiber.StatusFound)
}
