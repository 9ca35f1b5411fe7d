package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/NeuralTrust/FormGate/pkg/infra/httpx"
	"github.com/jordan-wright/email"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

const defaultSMTPTimeout = 10 * time.Second

// SendFunc delivers a composed email to addr.
type SendFunc func(e *email.Email, addr string, auth smtp.Auth) error

type smtpTransport struct {
	cfg     SMTPConfig
	breaker httpx.CircuitBreaker
	send    SendFunc
}

func NewSMTPTransport(cfg SMTPConfig, breaker httpx.CircuitBreaker, send SendFunc) Transport {
	if send == nil {
		send = func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		}
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}
	return &smtpTransport{cfg: cfg, breaker: breaker, send: send}
}

func (t *smtpTransport) Name() string { return "smtp" }

// Send gives up when ctx ends or the timeout passes. A dialogue that is
// abandoned this way keeps running in the background until the server answers.
func (t *smtpTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = msg.From
	e.To = []string{msg.To}
	if msg.ReplyTo != "" {
		e.ReplyTo = []string{msg.ReplyTo}
	}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)
	e.HTML = []byte(msg.HTML)

	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	var auth smtp.Auth
	if t.cfg.Username != "" {
		auth = smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)
	}

	sendCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()
	return t.breaker.Execute(func() error {
		done := make(chan error, 1)
		go func() { done <- t.send(e, addr, auth) }()
		select {
		case err := <-done:
			return err
		case <-sendCtx.Done():
			return fmt.Errorf("smtp send to %s: %w", addr, sendCtx.Err())
		}
	})
}
