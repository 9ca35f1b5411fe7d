package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/NeuralTrust/FormGate/pkg/domain/security"
	"github.com/NeuralTrust/FormGate/pkg/domain/telemetry"
	"github.com/NeuralTrust/FormGate/pkg/infra/httpx"
	"github.com/mitchellh/mapstructure"
)

const ExporterName = "webhook"

type Config struct {
	URL     string            `mapstructure:"url"`
	Timeout time.Duration     `mapstructure:"timeout"`
	Headers map[string]string `mapstructure:"headers"`
}

type Exporter struct {
	cfg     Config
	client  httpx.Client
	breaker httpx.CircuitBreaker
}

func NewWebhookExporter(client httpx.Client, breaker httpx.CircuitBreaker) *Exporter {
	return &Exporter{client: client, breaker: breaker}
}

func (e *Exporter) Name() string {
	return ExporterName
}

func decodeConfig(settings map[string]interface{}) (Config, error) {
	var conf Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &conf,
	})
	if err != nil {
		return conf, err
	}
	if err := decoder.Decode(settings); err != nil {
		return conf, fmt.Errorf("invalid webhook config: %w", err)
	}
	if conf.Timeout <= 0 {
		conf.Timeout = 5 * time.Second
	}
	return conf, nil
}

func (e *Exporter) ValidateConfig(settings map[string]interface{}) error {
	conf, err := decodeConfig(settings)
	if err != nil {
		return err
	}
	if conf.URL == "" {
		return errors.New("webhook url is required")
	}
	u, err := url.Parse(conf.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("webhook url %q is not an absolute http(s) url", conf.URL)
	}
	return nil
}

func (e *Exporter) WithSettings(settings map[string]interface{}) (telemetry.Exporter, error) {
	conf, err := decodeConfig(settings)
	if err != nil {
		return nil, err
	}
	return &Exporter{cfg: conf, client: e.client, breaker: e.breaker}, nil
}

func (e *Exporter) Handle(ctx context.Context, evt *security.Event) error {
	if e.cfg.URL == "" {
		return errors.New("webhook exporter is not configured")
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	return e.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.URL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range e.cfg.Headers {
			req.Header.Set(k, v)
		}
		resp, err := e.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil
	})
}

func (e *Exporter) Close() {}
