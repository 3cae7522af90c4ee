package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS allows the listed frontend origins to call the API with any method
// and any header, and lets browser scripts read exposed.
func CORS(allowedOrigins []string, exposed ...string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: strings.Join(allowedOrigins, ","),
		AllowMethods: strings.Join([]string{
			fiber.MethodGet,
			fiber.MethodPost,
			fiber.MethodHead,
			fiber.MethodPut,
			fiber.MethodDelete,
			fiber.MethodPatch,
			fiber.MethodOptions,
		}, ","),
		// Empty reflects the preflight's Access-Control-Request-Headers.
		AllowHeaders:  "",
		ExposeHeaders: strings.Join(exposed, ","),
	})
}
