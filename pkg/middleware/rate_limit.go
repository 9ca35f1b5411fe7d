package middleware

import (
	"strconv"
	"time"

	appSecurity "github.com/NeuralTrust/FormGate/pkg/app/security"
	"github.com/NeuralTrust/FormGate/pkg/domain/contact"
	"github.com/NeuralTrust/FormGate/pkg/domain/security"
	"github.com/NeuralTrust/FormGate/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type rateLimitMiddleware struct {
	logger   *logrus.Logger
	limiter  contact.RateLimiter
	recorder appSecurity.Recorder
	window   time.Duration
}

// NewRateLimitMiddleware applies the API-wide quota per endpoint and client IP.
func NewRateLimitMiddleware(
	logger *logrus.Logger,
	limiter contact.RateLimiter,
	recorder appSecurity.Recorder,
	window time.Duration,
) Middleware {
	return &rateLimitMiddleware{
		logger:   logger,
		limiter:  limiter,
		recorder: recorder,
		window:   window,
	}
}

func (m *rateLimitMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}
		ip := utils.ClientIP(c)
		decision, err := m.limiter.TryAcquire(c.UserContext(), c.Path()+":"+ip)
		if err != nil {
			m.logger.WithFields(logrus.Fields{
				"ip":   ip,
				"path": c.Path(),
			}).WithError(err).Warn("api rate limit check failed")
			if !decision.Allowed {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if decision.Allowed {
			return c.Next()
		}
		recordEvent(m.recorder, c, security.RateLimitViolation, map[string]interface{}{
			"limiter": "api",
			"count":   decision.Count,
			"limit":   decision.Limit,
		})
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(m.window.Seconds())))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
	}
}
