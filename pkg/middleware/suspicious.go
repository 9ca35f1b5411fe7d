package middleware

import (
	"net/url"
	"strings"

	appSecurity "github.com/NeuralTrust/FormGate/pkg/app/security"
	"github.com/NeuralTrust/FormGate/pkg/domain/security"
	"github.com/gofiber/fiber/v2"
)

var (
	suspiciousHeaders  = []string{"X-Middleware-Subrequest", "X-Powered-By"}
	suspiciousPatterns = []string{"../", "javascript:", "<script>"}
)

type suspiciousRequestMiddleware struct {
	recorder appSecurity.Recorder
}

// NewSuspiciousRequestMiddleware rejects requests carrying internal routing
// headers or traversal and script payloads in the URL.
func NewSuspiciousRequestMiddleware(recorder appSecurity.Recorder) Middleware {
	return &suspiciousRequestMiddleware{recorder: recorder}
}

func (m *suspiciousRequestMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reason, ok := suspicious(c)
		if !ok {
			return c.Next()
		}
		recordEvent(m.recorder, c, security.SuspiciousActivity, map[string]interface{}{
			"reason": reason,
		})
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
}

func suspicious(c *fiber.Ctx) (string, bool) {
	for _, h := range suspiciousHeaders {
		if len(c.Request().Header.Peek(h)) > 0 {
			return "header " + strings.ToLower(h), true
		}
	}
	raw := string(c.Request().Header.RequestURI())
	candidates := []string{strings.ToLower(raw)}
	if decoded, err := url.QueryUnescape(raw); err == nil {
		candidates = append(candidates, strings.ToLower(decoded))
	}
	for _, s := range candidates {
		for _, p := range suspiciousPatterns {
			if strings.Contains(s, p) {
				return "pattern " + p, true
			}
		}
	}
	return "", false
}
