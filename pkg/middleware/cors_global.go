package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type corsGlobalMiddleware struct {
	allowOrigins  []string
	allowMethods  string
	allowHeaders  string
	exposeHeaders string
	maxAge        string
}

// NewCORSGlobalMiddleware rejects any request whose Origin is not listed.
// Requests without an Origin header pass through.
func NewCORSGlobalMiddleware(allowOrigins []string) Middleware {
	return &corsGlobalMiddleware{
		allowOrigins:  allowOrigins,
		allowMethods:  "GET, POST, OPTIONS",
		allowHeaders:  "Content-Type, X-API-Key, X-Internal-Key, X-Request-ID",
		exposeHeaders: "Retry-After, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, X-Request-ID",
		maxAge:        "600",
	}
}

func (m *corsGlobalMiddleware) allowed(origin string) bool {
	for _, o := range m.allowOrigins {
		if o == "*" || strings.EqualFold(strings.TrimRight(o, "/"), origin) {
			return true
		}
	}
	return false
}

func (m *corsGlobalMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}
		if !m.allowed(origin) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "CORS policy violation"})
		}

		c.Vary(fiber.HeaderOrigin)
		c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
		c.Set(fiber.HeaderAccessControlExposeHeaders, m.exposeHeaders)

		if c.Method() == fiber.MethodOptions && c.Get(fiber.HeaderAccessControlRequestMethod) != "" {
			c.Set(fiber.HeaderAccessControlAllowMethods, m.allowMethods)
			if reqHeaders := c.Get(fiber.HeaderAccessControlRequestHeaders); reqHeaders != "" {
				c.Set(fiber.HeaderAccessControlAllowHeaders, reqHeaders)
			} else {
				c.Set(fiber.HeaderAccessControlAllowHeaders, m.allowHeaders)
			}
			c.Set(fiber.HeaderAccessControlMaxAge, m.maxAge)
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}
