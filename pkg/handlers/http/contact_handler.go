package http

import (
	"errors"
	"math"
	"strconv"

	"github.com/NeuralTrust/FormGate/pkg/app/contact"
	domain "github.com/NeuralTrust/FormGate/pkg/domain/errors"
	"github.com/NeuralTrust/FormGate/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	msgInvalidInput    = "Invalid input data"
	msgInvalidBody     = "Invalid request body"
	msgInvalidCaptcha  = "Invalid captcha"
	msgTooManyRequests = "Too many requests. Please try again later."
	msgInternalError   = "Internal server error"
)

type contactHandler struct {
	logger *logrus.Logger
	gate   contact.Gate
}

func NewContactHandler(logger *logrus.Logger, gate contact.Gate) Handler {
	return &contactHandler{
		logger: logger,
		gate:   gate,
	}
}

// Handle @Summary Submit the contact form
// @Description Validates, rate limits and delivers a contact form submission
// @Tags Contact
// @Accept json
// @Produce json
// @Param request body request.ContactRequest true "Contact form"
// @Success 200 {object} map[string]interface{} "Submission accepted"
// @Failure 400 {object} map[string]interface{} "Invalid input or captcha"
// @Failure 429 {object} map[string]interface{} "Too many requests"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/contact [post]
func (h *contactHandler) Handle(c *fiber.Ctx) error {
	err := h.gate.Submit(c.Context(), contact.SubmitInput{
		Body:      c.Body(),
		ClientID:  utils.ClientID(c),
		RemoteIP:  utils.ClientIP(c),
		Path:      utils.RequestPath(c),
		UserAgent: utils.UserAgent(c),
	})
	if err == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
	}

	switch domain.KindOf(err) {
	case domain.KindClientInput:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgInvalidInput})
	case domain.KindMalformedBody:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgInvalidBody})
	case domain.KindCaptcha:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgInvalidCaptcha})
	case domain.KindRateLimited:
		var limitErr *domain.RateLimitExceededError
		if errors.As(err, &limitErr) {
			c.Set(fiber.HeaderRetryAfter, retryAfterSeconds(limitErr))
		}
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": msgTooManyRequests})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msgInternalError})
	}
}

func retryAfterSeconds(err *domain.RateLimitExceededError) string {
	secs := int(math.Ceil(err.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
