package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bensalemboualem/ifactory-school/internal/dto"
	"github.com/bensalemboualem/ifactory-school/internal/i18n"
	"github.com/bensalemboualem/ifactory-school/internal/logging"
	"github.com/bensalemboualem/ifactory-school/internal/tenant"
)

// Paths that don't require tenant identification.
var tenantSkipPaths = []string{
	"/api/health",
}

// TenantMiddleware extracts school_id from the X-School-ID header or the
// school_id query param. Requests carrying a bearer token may omit both; the
// school then comes from the token in BindSchool.
func TenantMiddleware(registry *tenant.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, skip := range tenantSkipPaths {
			if strings.HasPrefix(path, skip) {
				return c.Next()
			}
		}

		schoolID := c.Get("X-School-ID")
		if schoolID == "" {
			schoolID = c.Query("school_id")
		}

		if schoolID == "" {
			if strings.HasPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ") {
				setLocale(c, registry, "")
				return c.Next()
			}
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "X-School-ID header is required",
			})
		}
		if !registry.Exists(schoolID) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Invalid X-School-ID: " + schoolID,
			})
		}

		c.Locals("school_id", schoolID)
		setLocale(c, registry, schoolID)
		bindRequestContext(c, schoolID, "")
		return c.Next()
	}
}

// BindSchool pins the request to the school of the authenticated token. A
// school given by header or query must match it.
func BindSchool(registry *tenant.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok || token == nil {
			return unauthorized(c)
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return unauthorized(c)
		}
		schoolID, _ := claims["school_id"].(string)
		if schoolID == "" || !registry.Exists(schoolID) {
			return unauthorized(c)
		}
		if current := tenant.GetSchoolID(c); current != "" && current != schoolID {
			return forbidden(c)
		}

		sub, _ := claims["sub"].(string)
		c.Locals("school_id", schoolID)
		setLocale(c, registry, schoolID)
		bindRequestContext(c, schoolID, sub)
		return c.Next()
	}
}

func setLocale(c *fiber.Ctx, registry *tenant.Registry, schoolID string) {
	c.Locals("locale", i18n.Locale(c.Get(fiber.HeaderAcceptLanguage), registry.DefaultLocale(schoolID)))
}

func bindRequestContext(c *fiber.Ctx, schoolID, userID string) {
	requestID, _ := c.Locals("requestid").(string)
	c.SetUserContext(logging.WithRequest(c.UserContext(), logging.RequestInfo{
		RequestID: requestID,
		SchoolID:  schoolID,
		UserID:    userID,
	}))
}
