package captcha

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NeuralTrust/FormGate/pkg/domain/contact"
	"github.com/NeuralTrust/FormGate/pkg/infra/httpx"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"
)

const DefaultVerifyURL = "https://hcaptcha.com/siteverify"

type Config struct {
	Secret    string
	VerifyURL string
	Timeout   time.Duration
}

type hCaptchaVerifier struct {
	logger  *logrus.Logger
	client  httpx.Client
	breaker httpx.CircuitBreaker
	cfg     Config
	parsers fastjson.ParserPool
}

// NewHCaptchaVerifier checks tokens against the hCaptcha siteverify endpoint.
// Anything other than an explicit success verdict is reported as not verified.
func NewHCaptchaVerifier(
	logger *logrus.Logger,
	client httpx.Client,
	breaker httpx.CircuitBreaker,
	cfg Config,
) contact.CaptchaVerifier {
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = DefaultVerifyURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &hCaptchaVerifier{
		logger:  logger,
		client:  client,
		breaker: breaker,
		cfg:     cfg,
	}
}

func (v *hCaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if token == "" {
		return false, nil
	}
	if v.cfg.Secret == "" {
		return false, fmt.Errorf("captcha secret not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	form := url.Values{}
	form.Set("response", token)
	form.Set("secret", v.cfg.Secret)
	if remoteIP != "" && remoteIP != "unknown" {
		form.Set("remoteip", remoteIP)
	}

	var body []byte
	err := v.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.VerifyURL, strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := v.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("siteverify returned status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("verify captcha: %w", err)
	}

	p := v.parsers.Get()
	defer v.parsers.Put(p)
	val, err := p.ParseBytes(body)
	if err != nil {
		return false, fmt.Errorf("parse siteverify response: %w", err)
	}
	if val.GetBool("success") {
		return true, nil
	}

	codes := make([]string, 0)
	for _, c := range val.GetArray("error-codes") {
		codes = append(codes, string(c.GetStringBytes()))
	}
	v.logger.WithFields(logrus.Fields{
		"ip":          remoteIP,
		"error_codes": codes,
	}).Debug("captcha rejected")
	return false, nil
}
