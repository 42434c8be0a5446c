package handlers

import (
	"errors"

	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"

	"github.com/bensalemboualem/ifactory-school/internal/dto"
	"github.com/bensalemboualem/ifactory-school/internal/i18n"
	"github.com/bensalemboualem/ifactory-school/internal/services"
	"github.com/bensalemboualem/ifactory-school/internal/tenant"
	"github.com/bensalemboualem/ifactory-school/internal/validation"
)

func message(c *fiber.Ctx, key string) string {
	return i18n.T(tenant.GetLocale(c), key)
}

func respond(c *fiber.Ctx, status int, data any, key string) error {
	return c.Status(status).JSON(dto.DataResponse{Data: data, Message: message(c, key)})
}

func fail(c *fiber.Ctx, status int, key string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message(c, key)})
}

// respondError maps service errors to HTTP responses. Anything unknown is a
// 500 with a generic message and is reported to Sentry.
func respondError(c *fiber.Ctx, err error) error {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Error:   true,
			Message: message(c, i18n.MsgValidationFailed),
			Fields:  verr.Fields,
		})
	case errors.Is(err, services.ErrPostNotFound):
		return fail(c, fiber.StatusNotFound, i18n.MsgNotFound)
	case errors.Is(err, services.ErrCommentNotFound):
		return fail(c, fiber.StatusNotFound, i18n.MsgCommentNotFound)
	case errors.Is(err, services.ErrForbidden):
		return fail(c, fiber.StatusForbidden, i18n.MsgForbidden)
	case errors.Is(err, services.ErrInvalidCredentials):
		return fail(c, fiber.StatusUnauthorized, i18n.MsgInvalidLogin)
	case errors.Is(err, services.ErrEmailTaken):
		return fail(c, fiber.StatusConflict, i18n.MsgEmailTaken)
	case errors.Is(err, tenant.ErrNoActor):
		return fail(c, fiber.StatusUnauthorized, i18n.MsgUnauthorized)
	}

	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	return fail(c, fiber.StatusInternalServerError, i18n.MsgSomethingWrong)
}

func invalidBody(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, i18n.MsgInvalidBody)
}
