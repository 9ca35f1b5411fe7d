package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	appSecurity "github.com/NeuralTrust/FormGate/pkg/app/security"
	"github.com/NeuralTrust/FormGate/pkg/domain/contact"
	domain "github.com/NeuralTrust/FormGate/pkg/domain/errors"
	"github.com/NeuralTrust/FormGate/pkg/domain/security"
	"github.com/NeuralTrust/FormGate/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

// SubmitInput is everything the gate needs from one HTTP request.
type SubmitInput struct {
	Body      []byte
	ClientID  string
	RemoteIP  string
	Path      string
	UserAgent string
}

// Gate runs a contact submission through every check and sends the mails.
type Gate interface {
	Submit(ctx context.Context, in SubmitInput) error
}

type GateOpts struct {
	// CountFailedCaptcha records failed captcha attempts against the client's quota.
	CountFailedCaptcha bool
}

type GateDI struct {
	Logger     *logrus.Logger
	Sanitizer  contact.Sanitizer
	Validator  contact.Validator
	Captcha    contact.CaptchaVerifier
	Limiter    contact.RateLimiter
	Dispatcher contact.Dispatcher
	Recorder   appSecurity.Recorder
	Opts       GateOpts
}

type gate struct {
	logger     *logrus.Logger
	sanitizer  contact.Sanitizer
	validator  contact.Validator
	captcha    contact.CaptchaVerifier
	limiter    contact.RateLimiter
	dispatcher contact.Dispatcher
	recorder   appSecurity.Recorder
	opts       GateOpts
}

func NewGate(di GateDI) Gate {
	return &gate{
		logger:     di.Logger,
		sanitizer:  di.Sanitizer,
		validator:  di.Validator,
		captcha:    di.Captcha,
		limiter:    di.Limiter,
		dispatcher: di.Dispatcher,
		recorder:   di.Recorder,
		opts:       di.Opts,
	}
}

type rawSubmission struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Message      string `json:"message"`
	CaptchaToken string `json:"captchaToken"`
}

func (g *gate) Submit(ctx context.Context, in SubmitInput) error {
	err := g.submit(ctx, in)
	outcome := "success"
	if err != nil {
		kind := domain.KindOf(err)
		outcome = string(kind)
		g.logFailure(in, kind, err)
	}
	prometheus.SubmissionsTotal.WithLabelValues(outcome).Inc()
	return err
}

func (g *gate) submit(ctx context.Context, in SubmitInput) error {
	raw, err := decodeSubmission(in.Body)
	if err != nil {
		return err
	}

	submission := contact.Submission{
		Name:         g.sanitizer.Sanitize(raw.Name),
		Email:        g.sanitizer.Sanitize(raw.Email),
		Message:      g.sanitizer.Sanitize(raw.Message),
		CaptchaToken: raw.CaptchaToken,
	}

	if err := g.validator.Validate(submission); err != nil {
		return err
	}

	ok, err := g.captcha.Verify(ctx, submission.CaptchaToken, in.RemoteIP)
	if !ok {
		g.recordCaptchaFailure(ctx, in, err)
		if g.opts.CountFailedCaptcha {
			g.countFailedAttempt(ctx, in)
		}
		return &domain.CaptchaError{Err: err}
	}

	decision, err := g.limiter.TryAcquire(ctx, in.ClientID)
	if err != nil && !decision.Allowed {
		return domain.NewDependencyError("rate limit store", err)
	}
	if err != nil {
		g.logger.WithFields(logrus.Fields{
			"ip":   in.ClientID,
			"path": in.Path,
		}).WithError(err).Warn("rate limit store failed, admitting request")
	}
	if !decision.Allowed {
		g.recordViolation(ctx, in, decision)
		return &domain.RateLimitExceededError{
			ClientID:   in.ClientID,
			Limit:      decision.Limit,
			RetryAfter: retryAfter(decision),
		}
	}

	if err := g.dispatcher.SendNotification(ctx, submission); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	if err := g.dispatcher.SendConfirmation(ctx, submission); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	return nil
}

func decodeSubmission(body []byte) (rawSubmission, error) {
	var raw rawSubmission
	err := json.Unmarshal(body, &raw)
	if err == nil {
		return raw, nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return raw, domain.NewClientInputError(map[string]string{typeErr.Field: "must be a string"})
	}
	return raw, &domain.MalformedBodyError{Err: err}
}

func (g *gate) countFailedAttempt(ctx context.Context, in SubmitInput) {
	if _, err := g.limiter.TryAcquire(ctx, in.ClientID); err != nil {
		g.logger.WithFields(logrus.Fields{
			"ip":   in.ClientID,
			"path": in.Path,
		}).WithError(err).Warn("failed to count failed captcha attempt")
	}
}

func (g *gate) recordViolation(ctx context.Context, in SubmitInput, decision contact.Decision) {
	if g.recorder == nil {
		return
	}
	g.recorder.Record(ctx, security.Event{
		Type:      security.RateLimitViolation,
		IP:        in.RemoteIP,
		Path:      in.Path,
		UserAgent: in.UserAgent,
		Details: map[string]interface{}{
			"limiter":   "contact",
			"client_id": in.ClientID,
			"count":     decision.Count,
			"limit":     decision.Limit,
		},
	})
}

func (g *gate) recordCaptchaFailure(ctx context.Context, in SubmitInput, cause error) {
	if g.recorder == nil {
		return
	}
	details := map[string]interface{}{
		"reason":    "captcha_failed",
		"client_id": in.ClientID,
	}
	if cause != nil {
		details["error"] = cause.Error()
	}
	g.recorder.Record(ctx, security.Event{
		Type:      security.SuspiciousActivity,
		Severity:  security.SeverityLow,
		IP:        in.RemoteIP,
		Path:      in.Path,
		UserAgent: in.UserAgent,
		Details:   details,
	})
}

func (g *gate) logFailure(in SubmitInput, kind domain.Kind, err error) {
	entry := g.logger.WithFields(logrus.Fields{
		"ip":         in.ClientID,
		"path":       in.Path,
		"error_kind": kind,
	}).WithError(err)
	switch kind {
	case domain.KindDependency, domain.KindInternal:
		entry.Error("contact submission failed")
	default:
		entry.Info("contact submission rejected")
	}
}

func retryAfter(decision contact.Decision) time.Duration {
	if decision.ResetAt.IsZero() {
		return 0
	}
	d := time.Until(decision.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}
