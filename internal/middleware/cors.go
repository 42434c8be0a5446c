package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/bensalemboualem/ifactory-school/internal/config"
)

// CORS allows the school web clients to send X-School-ID and Accept-Language
// and to read the request id back for support tickets.
func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Authorization, Accept, Accept-Language, X-School-ID",
		AllowMethods:  "GET, POST, PUT, DELETE, OPTIONS",
		ExposeHeaders: fiber.HeaderXRequestID,
		MaxAge:        600,
	})
}
