package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("transcription provider not configured")

type Transcriber interface {
	Available() bool
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// BaseURL overrides the provider endpoint.
	BaseURL string
}

type openAITranscriber struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAITranscriber returns a Whisper-backed Transcriber, or one that
// always fails with ErrNotConfigured when cfg has no API key.
func NewOpenAITranscriber(cfg Config) Transcriber {
	if cfg.APIKey == "" {
		return &openAITranscriber{}
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.AudioModelWhisper1)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	cli := openai.NewClient(opts...)
	return &openAITranscriber{
		client:  &cli,
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

func (t *openAITranscriber) Available() bool {
	return t.client != nil
}

func (t *openAITranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if t.client == nil {
		return "", ErrNotConfigured
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio")
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(t.model),
		File:  openai.File(bytes.NewReader(audio), "input.wav", "audio/wav"),
	})
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	return resp.Text, nil
}
