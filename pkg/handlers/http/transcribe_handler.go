package http

import (
	"errors"

	"github.com/NeuralTrust/FormGate/pkg/handlers/http/request"
	"github.com/NeuralTrust/FormGate/pkg/infra/transcription"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const msgTranscriptionUnavailable = "OpenAI service not available. API key may be missing."

type transcribeHandler struct {
	logger      *logrus.Logger
	transcriber transcription.Transcriber
}

func NewTranscribeHandler(logger *logrus.Logger, transcriber transcription.Transcriber) Handler {
	return &transcribeHandler{
		logger:      logger,
		transcriber: transcriber,
	}
}

// Handle @Summary Transcribe recorded audio
// @Description Sends base64 encoded WAV audio to Whisper and returns the text
// @Tags OpenAI
// @Accept json
// @Produce json
// @Param request body request.TranscribeRequest true "Audio payload"
// @Success 200 {object} map[string]interface{} "Transcribed text"
// @Failure 400 {object} map[string]interface{} "Invalid audio payload"
// @Failure 500 {object} map[string]interface{} "Failed to process audio transcription"
// @Failure 503 {object} map[string]interface{} "Provider not configured"
// @Router /api/openai/transcribe [post]
func (h *transcribeHandler) Handle(c *fiber.Ctx) error {
	if !h.transcriber.Available() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": msgTranscriptionUnavailable})
	}

	var req request.TranscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid audio payload"})
	}
	audio, err := req.Decode()
	if err != nil {
		h.logger.WithError(err).Debug("rejected audio payload")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid audio payload"})
	}

	text, err := h.transcriber.Transcribe(c.Context(), audio)
	if errors.Is(err, transcription.ErrNotConfigured) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": msgTranscriptionUnavailable})
	}
	if err != nil {
		h.logger.WithError(err).Error("failed to transcribe audio")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process audio transcription"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"text": text})
}
