package http

import (
	"strings"

	appSecurity "github.com/NeuralTrust/FormGate/pkg/app/security"
	"github.com/NeuralTrust/FormGate/pkg/handlers/http/request"
	"github.com/NeuralTrust/FormGate/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type securityLogHandler struct {
	logger   *logrus.Logger
	recorder appSecurity.Recorder
}

func NewSecurityLogHandler(logger *logrus.Logger, recorder appSecurity.Recorder) Handler {
	return &securityLogHandler{
		logger:   logger,
		recorder: recorder,
	}
}

// Handle @Summary Report a client-side security event
// @Tags Security
// @Accept json
// @Produce json
// @Param request body request.SecurityLogRequest true "Security event"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Invalid content type"
// @Failure 500 {object} map[string]interface{} "Failed to log security event"
// @Router /api/security/log [post]
func (h *securityLogHandler) Handle(c *fiber.Ctx) error {
	if !strings.Contains(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid content type"})
	}

	var req request.SecurityLogRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to decode security event")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to log security event"})
	}

	evt := req.ToEvent()
	evt.IP = utils.ClientIP(c)
	evt.UserAgent = utils.UserAgent(c)
	if evt.Path == "" {
		evt.Path = utils.RequestPath(c)
	}
	h.recorder.Record(c.Context(), evt)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}
