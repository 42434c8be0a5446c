package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bensalemboualem/ifactory-school/internal/authz"
	"github.com/bensalemboualem/ifactory-school/internal/tenant"
)

// ModeratorRequired lets through actors holding a moderator role of their
// school. It must run after JWTProtected and BindSchool.
func ModeratorRequired(checker authz.Checker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := tenant.GetActor(c)
		if err != nil {
			return unauthorized(c)
		}
		if !checker.CanModerate(actor) {
			return forbidden(c)
		}
		return c.Next()
	}
}
