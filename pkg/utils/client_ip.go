package utils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
)

const (
	ForwardedForHeader = "X-Forwarded-For"
	UnknownClient      = "unknown"

	// MaxClientIPLength bounds the stored client address.
	MaxClientIPLength = 64
)

// The helpers below return copies. Strings read straight from the fiber
// context are only valid until the handler returns.

// ClientID is the raw X-Forwarded-For value, used as the rate limit identity.
func ClientID(c *fiber.Ctx) string {
	if v := strings.TrimSpace(c.Get(ForwardedForHeader)); v != "" {
		return fiberutils.CopyString(v)
	}
	return UnknownClient
}

// ClientIP is the first X-Forwarded-For hop, falling back to the peer address.
func ClientIP(c *fiber.Ctx) string {
	if v := c.Get(ForwardedForHeader); v != "" {
		first := strings.TrimSpace(strings.Split(v, ",")[0])
		if len(first) > MaxClientIPLength {
			first = first[:MaxClientIPLength]
		}
		if first != "" {
			return fiberutils.CopyString(first)
		}
	}
	return fiberutils.CopyString(c.IP())
}

func RequestPath(c *fiber.Ctx) string {
	return fiberutils.CopyString(c.Path())
}

func RequestMethod(c *fiber.Ctx) string {
	return fiberutils.CopyString(c.Method())
}

func UserAgent(c *fiber.Ctx) string {
	return fiberutils.CopyString(c.Get(fiber.HeaderUserAgent))
}
