package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/NeuralTrust/FormGate/pkg/infra/httpx"
	"github.com/sirupsen/logrus"
)

const DefaultSendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

type SendGridConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	ReplyTo          *sendGridAddress          `json:"reply_to,omitempty"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

type sendGridTransport struct {
	logger  *logrus.Logger
	client  httpx.Client
	breaker httpx.CircuitBreaker
	cfg     SendGridConfig
}

func NewSendGridTransport(
	logger *logrus.Logger,
	client httpx.Client,
	breaker httpx.CircuitBreaker,
	cfg SendGridConfig,
) Transport {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultSendGridEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &sendGridTransport{
		logger:  logger,
		client:  client,
		breaker: breaker,
		cfg:     cfg,
	}
}

func (t *sendGridTransport) Name() string { return "sendgrid" }

func (t *sendGridTransport) Send(ctx context.Context, msg Message) error {
	payload := sendGridRequest{
		Personalizations: []sendGridPersonalization{{To: []sendGridAddress{{Email: msg.To}}}},
		From:             sendGridAddress{Email: msg.From},
		Subject:          msg.Subject,
		Content: []sendGridContent{
			{Type: "text/plain", Value: msg.Text},
			{Type: "text/html", Value: msg.HTML},
		},
	}
	if msg.ReplyTo != "" {
		payload.ReplyTo = &sendGridAddress{Email: msg.ReplyTo}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode sendgrid request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	return t.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.Endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			t.logger.WithFields(logrus.Fields{
				"status": resp.StatusCode,
				"body":   string(respBody),
			}).Warn("sendgrid rejected message")
			return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
		}
		return nil
	})
}
