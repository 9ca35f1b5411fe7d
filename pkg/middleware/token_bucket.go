package middleware

import (
	"github.com/NeuralTrust/FormGate/pkg/infra/prometheus"
	"github.com/NeuralTrust/FormGate/pkg/infra/ratelimit"
	"github.com/NeuralTrust/FormGate/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type tokenBucketMiddleware struct {
	store *ratelimit.TokenBucketStore
}

// NewTokenBucketMiddleware throttles per client IP in process.
func NewTokenBucketMiddleware(store *ratelimit.TokenBucketStore) Middleware {
	return &tokenBucketMiddleware{store: store}
}

func (m *tokenBucketMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.store.Allow(c.Path() + ":" + utils.ClientIP(c)) {
			return c.Next()
		}
		prometheus.RateLimitDecisions.WithLabelValues("log", "rejected").Inc()
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
	}
}
