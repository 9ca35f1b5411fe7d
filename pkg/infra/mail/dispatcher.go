package mail

import (
	"context"
	"fmt"

	"github.com/NeuralTrust/FormGate/pkg/domain/contact"
	domain "github.com/NeuralTrust/FormGate/pkg/domain/errors"
	"github.com/sirupsen/logrus"
)

type DispatcherConfig struct {
	From  string
	To    string
	Brand string
}

type dispatcher struct {
	logger    *logrus.Logger
	transport Transport
	cfg       DispatcherConfig
}

// NewDispatcher renders the contact emails and sends them once each through
// transport. Failures are returned as *domain.MailDeliveryError.
func NewDispatcher(logger *logrus.Logger, transport Transport, cfg DispatcherConfig) contact.Dispatcher {
	return &dispatcher{
		logger:    logger,
		transport: transport,
		cfg:       cfg,
	}
}

func (d *dispatcher) SendNotification(ctx context.Context, s contact.Submission) error {
	text, err := render(notificationText, s)
	if err != nil {
		return &domain.MailDeliveryError{Kind: domain.MailNotification, Err: fmt.Errorf("render: %w", err)}
	}
	html, err := render(notificationHTML, s)
	if err != nil {
		return &domain.MailDeliveryError{Kind: domain.MailNotification, Err: fmt.Errorf("render: %w", err)}
	}
	return d.send(ctx, domain.MailNotification, Message{
		From:    d.cfg.From,
		To:      d.cfg.To,
		ReplyTo: s.Email,
		Subject: notificationSubject(s),
		Text:    text,
		HTML:    html,
	})
}

func (d *dispatcher) SendConfirmation(ctx context.Context, s contact.Submission) error {
	data := confirmationData{Brand: d.cfg.Brand}
	text, err := render(confirmationText, data)
	if err != nil {
		return &domain.MailDeliveryError{Kind: domain.MailConfirmation, Err: fmt.Errorf("render: %w", err)}
	}
	html, err := render(confirmationHTML, data)
	if err != nil {
		return &domain.MailDeliveryError{Kind: domain.MailConfirmation, Err: fmt.Errorf("render: %w", err)}
	}
	return d.send(ctx, domain.MailConfirmation, Message{
		From:    d.cfg.From,
		To:      s.Email,
		Subject: confirmationSubject(d.cfg.Brand),
		Text:    text,
		HTML:    html,
	})
}

func (d *dispatcher) send(ctx context.Context, kind domain.MailKind, msg Message) error {
	if err := d.transport.Send(ctx, msg); err != nil {
		d.logger.WithFields(logrus.Fields{
			"mail":      kind,
			"transport": d.transport.Name(),
		}).WithError(err).Error("failed to send email")
		return &domain.MailDeliveryError{Kind: kind, Err: err}
	}
	d.logger.WithFields(logrus.Fields{
		"mail":      kind,
		"transport": d.transport.Name(),
	}).Debug("email sent")
	return nil
}
