package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NeuralTrust/FormGate/pkg/infra/transcription"
	transcriberMocks "github.com/NeuralTrust/FormGate/pkg/infra/transcription/mocks"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTranscribeApp(tr transcription.Transcriber) *fiber.App {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	app := fiber.New()
	app.Post("/api/openai/transcribe", NewTranscribeHandler(logger, tr).Handle)
	return app
}

func postTranscribe(t *testing.T, app *fiber.App, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/openai/transcribe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestTranscribeHandler_Success(t *testing.T) {
	audio := []byte("RIFF....WAVEfmt ")
	tr := new(transcriberMocks.MockTranscriber)
	tr.On("Available").Return(true)
	tr.On("Transcribe", mock.Anything, audio).Return("hello world", nil)

	body := `{"audio":"` + base64.StdEncoding.EncodeToString(audio) + `"}`
	status, out := postTranscribe(t, newTranscribeApp(tr), body)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "hello world", out["text"])
	tr.AssertExpectations(t)
}

func TestTranscribeHandler_DataURL(t *testing.T) {
	audio := []byte("RIFF")
	tr := new(transcriberMocks.MockTranscriber)
	tr.On("Available").Return(true)
	tr.On("Transcribe", mock.Anything, audio).Return("ok", nil)

	body := `{"audio":"data:audio/wav;base64,` + base64.StdEncoding.EncodeToString(audio) + `"}`
	status, _ := postTranscribe(t, newTranscribeApp(tr), body)

	assert.Equal(t, fiber.StatusOK, status)
	tr.AssertExpectations(t)
}

func TestTranscribeHandler_NotConfigured(t *testing.T) {
	tr := new(transcriberMocks.MockTranscriber)
	tr.On("Available").Return(false)

	status, out := postTranscribe(t, newTranscribeApp(tr), `{"audio":"UklGRg=="}`)

	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "OpenAI service not available. API key may be missing.", out["error"])
	tr.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
}

func TestTranscribeHandler_InvalidPayload(t *testing.T) {
	bodies := map[string]string{
		"not json":    `{"audio":`,
		"missing":     `{}`,
		"bad base64":  `{"audio":"***"}`,
		"empty audio": `{"audio":"   "}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			tr := new(transcriberMocks.MockTranscriber)
			tr.On("Available").Return(true)

			status, out := postTranscribe(t, newTranscribeApp(tr), body)

			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, "Invalid audio payload", out["error"])
			tr.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
		})
	}
}

func TestTranscribeHandler_ProviderFailure(t *testing.T) {
	tr := new(transcriberMocks.MockTranscriber)
	tr.On("Available").Return(true)
	tr.On("Transcribe", mock.Anything, mock.Anything).Return("", errors.New("upstream 500"))

	status, out := postTranscribe(t, newTranscribeApp(tr), `{"audio":"UklGRg=="}`)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to process audio transcription", out["error"])
}
