package middleware

import (
	"crypto/subtle"
	"strings"

	appSecurity "github.com/NeuralTrust/FormGate/pkg/app/security"
	"github.com/NeuralTrust/FormGate/pkg/common"
	"github.com/NeuralTrust/FormGate/pkg/domain/security"
	"github.com/gofiber/fiber/v2"
)

const externalPrefix = "/api/external"

type apiKeyMiddleware struct {
	apiKey   string
	recorder appSecurity.Recorder
}

// NewAPIKeyMiddleware guards /api/external with a shared key. An empty
// configured key rejects every external request.
func NewAPIKeyMiddleware(apiKey string, recorder appSecurity.Recorder) Middleware {
	return &apiKeyMiddleware{apiKey: apiKey, recorder: recorder}
}

func (m *apiKeyMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(c.Path(), externalPrefix) {
			return c.Next()
		}
		if SecretEqual(c.Get(common.APIKeyHeader), m.apiKey) {
			return c.Next()
		}
		recordEvent(m.recorder, c, security.AuthFailure, map[string]interface{}{
			"reason": "invalid api key",
		})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid API key"})
	}
}

// SecretEqual compares in constant time; an empty expected value never matches.
func SecretEqual(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
