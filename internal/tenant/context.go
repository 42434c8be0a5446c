package tenant

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bensalemboualem/ifactory-school/internal/authz"
	"github.com/bensalemboualem/ifactory-school/internal/i18n"
)

var ErrNoActor = errors.New("no authenticated actor")

// GetSchoolID extracts the school_id from Fiber context locals.
func GetSchoolID(c *fiber.Ctx) string {
	if schoolID, ok := c.Locals("school_id").(string); ok {
		return schoolID
	}
	return ""
}

func claims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, errors.New("invalid token in context")
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return mc, nil
}

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	mc, err := claims(c)
	if err != nil {
		return uuid.Nil, err
	}
	sub, ok := mc["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}
	return uuid.Parse(sub)
}

// GetActor builds the acting user from the JWT claims. The token must belong
// to the school resolved for the request.
func GetActor(c *fiber.Ctx) (authz.Actor, error) {
	mc, err := claims(c)
	if err != nil {
		return authz.Actor{}, ErrNoActor
	}
	id, err := GetUserID(c)
	if err != nil {
		return authz.Actor{}, ErrNoActor
	}
	role, _ := mc["role"].(string)
	schoolID, _ := mc["school_id"].(string)
	if !authz.ValidRole(role) || schoolID == "" {
		return authz.Actor{}, ErrNoActor
	}
	if current := GetSchoolID(c); current != "" && current != schoolID {
		return authz.Actor{}, ErrNoActor
	}
	return authz.Actor{ID: id, SchoolID: schoolID, Role: role}, nil
}

// GetLocale returns the response locale resolved by the tenant middleware,
// or one derived from Accept-Language alone.
func GetLocale(c *fiber.Ctx) string {
	if locale, ok := c.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	return i18n.Locale(c.Get(fiber.HeaderAcceptLanguage), "")
}
