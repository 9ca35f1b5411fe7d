package http

import (
	"encoding/json"

	appSecurity "github.com/NeuralTrust/FormGate/pkg/app/security"
	"github.com/NeuralTrust/FormGate/pkg/common"
	"github.com/NeuralTrust/FormGate/pkg/domain/security"
	"github.com/NeuralTrust/FormGate/pkg/middleware"
	"github.com/NeuralTrust/FormGate/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type monitoringLogHandler struct {
	logger      *logrus.Logger
	recorder    appSecurity.Recorder
	internalKey string
}

func NewMonitoringLogHandler(
	logger *logrus.Logger,
	recorder appSecurity.Recorder,
	internalKey string,
) Handler {
	return &monitoringLogHandler{
		logger:      logger,
		recorder:    recorder,
		internalKey: internalKey,
	}
}

// Handle @Summary Ingest internal monitoring data
// @Tags Monitoring
// @Accept json
// @Produce json
// @Param X-Internal-Key header string true "Internal monitoring key"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 500 {object} map[string]interface{} "Failed to log monitoring data"
// @Router /api/monitoring/log [post]
func (h *monitoringLogHandler) Handle(c *fiber.Ctx) error {
	if !middleware.SecretEqual(c.Get(common.InternalKeyHeader), h.internalKey) {
		if h.recorder != nil {
			h.recorder.Record(c.Context(), security.Event{
				Type:      security.AuthFailure,
				IP:        utils.ClientIP(c),
				Path:      utils.RequestPath(c),
				UserAgent: utils.UserAgent(c),
				Details:   map[string]interface{}{"reason": "invalid_internal_key"},
			})
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		h.logger.WithError(err).Error("failed to decode monitoring data")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to log monitoring data"})
	}

	h.logger.WithFields(logrus.Fields{
		"source": "monitoring",
		"event":  payload,
	}).Info("monitoring data received")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}
