package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/bensalemboualem/ifactory-school/internal/dto"
	"github.com/bensalemboualem/ifactory-school/internal/i18n"
	"github.com/bensalemboualem/ifactory-school/internal/models"
	"github.com/bensalemboualem/ifactory-school/internal/services"
	"github.com/bensalemboualem/ifactory-school/internal/tenant"
)

type CommentHandler struct {
	service *services.CommentService
	kind    models.ContentKind
}

func NewCommentHandler(service *services.CommentService, kind models.ContentKind) *CommentHandler {
	return &CommentHandler{service: service, kind: kind}
}

func (h *CommentHandler) Thread(c *fiber.Ctx) error {
	actor, err := tenant.GetActor(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := postID(c)
	if !ok {
		return fail(c, fiber.StatusNotFound, i18n.MsgNotFound)
	}

	thread, err := h.service.Thread(c.UserContext(), actor, h.kind, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DataResponse{Data: thread})
}

func (h *CommentHandler) Create(c *fiber.Ctx) error {
	actor, err := tenant.GetActor(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := postID(c)
	if !ok {
		return fail(c, fiber.StatusNotFound, i18n.MsgNotFound)
	}

	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	comment, err := h.service.Create(c.UserContext(), actor, h.kind, id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, dto.ToCommentResponse(comment), i18n.MsgCommentAdded)
}

func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	actor, err := tenant.GetActor(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := postID(c)
	if !ok {
		return fail(c, fiber.StatusNotFound, i18n.MsgNotFound)
	}
	commentID, err := uuid.Parse(c.Params("commentId"))
	if err != nil {
		return fail(c, fiber.StatusNotFound, i18n.MsgCommentNotFound)
	}

	n, err := h.service.Delete(c.UserContext(), actor, h.kind, id, commentID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"deleted": n}, i18n.MsgCommentDeleted)
}
