package middleware

import (
	"github.com/gofiber/fiber/v2"
)

type bodyLimitMiddleware struct {
	maxBytes int
}

// NewBodyLimitMiddleware rejects POST requests declaring a Content-Length
// above maxBytes.
func NewBodyLimitMiddleware(maxBytes int) Middleware {
	return &bodyLimitMiddleware{maxBytes: maxBytes}
}

func (m *bodyLimitMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost && c.Request().Header.ContentLength() > m.maxBytes {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "Request body too large"})
		}
		return c.Next()
	}
}
