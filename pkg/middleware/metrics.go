package middleware

import (
	"strconv"
	"time"

	"github.com/NeuralTrust/FormGate/pkg/common"
	"github.com/NeuralTrust/FormGate/pkg/infra/prometheus"
	"github.com/NeuralTrust/FormGate/pkg/utils"
	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type metricsMiddleware struct {
	logger        *logrus.Logger
	slowThreshold time.Duration
}

// NewMetricsMiddleware assigns a request id, then logs and counts each
// request once it completes. Requests slower than slowThreshold log a warning.
func NewMetricsMiddleware(logger *logrus.Logger, slowThreshold time.Duration) Middleware {
	return &metricsMiddleware{logger: logger, slowThreshold: slowThreshold}
}

func (m *metricsMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		id := fiberutils.CopyString(c.Get(common.RequestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Locals(common.RequestIDContextKey, id)
		c.Set(common.RequestIDHeader, id)

		err := c.Next()
		if err != nil {
			// Let the app error handler write the response before reading its status.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			err = nil
		}

		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path

		prometheus.RequestTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		prometheus.RequestLatency.WithLabelValues(route).Observe(float64(elapsed.Milliseconds()))

		entry := m.logger.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency_ms": elapsed.Milliseconds(),
			"ip":         utils.ClientIP(c),
		})
		if m.slowThreshold > 0 && elapsed > m.slowThreshold {
			entry.Warn("slow request")
		} else {
			entry.Info("request completed")
		}
		return err
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(common.RequestIDContextKey).(string)
	return id
}
