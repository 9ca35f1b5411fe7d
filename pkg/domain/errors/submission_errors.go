package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind labels an error for logs and metrics.
type Kind string

const (
	KindClientInput   Kind = "client_input"
	KindMalformedBody Kind = "malformed_body"
	KindCaptcha       Kind = "captcha"
	KindRateLimited   Kind = "rate_limited"
	KindDependency    Kind = "dependency"
	KindInternal      Kind = "internal"
)

// ClientInputError carries one message per invalid field, keyed by JSON field name.
type ClientInputError struct {
	Fields map[string]string
}

func NewClientInputError(fields map[string]string) *ClientInputError {
	return &ClientInputError{Fields: fields}
}

func (e *ClientInputError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

type MalformedBodyError struct {
	Err error
}

func (e *MalformedBodyError) Error() string {
	return fmt.Sprintf("malformed request body: %v", e.Err)
}

func (e *MalformedBodyError) Unwrap() error { return e.Err }

// CaptchaError means the challenge was rejected or could not be verified.
type CaptchaError struct {
	Err error
}

func (e *CaptchaError) Error() string {
	if e.Err == nil {
		return "captcha verification failed"
	}
	return fmt.Sprintf("captcha verification failed: %v", e.Err)
}

func (e *CaptchaError) Unwrap() error { return e.Err }

type RateLimitExceededError struct {
	ClientID   string
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("rate limit of %d exceeded for %s", e.Limit, e.ClientID)
}

// DependencyError wraps a failure of an external collaborator (store, mail, captcha transport).
type DependencyError struct {
	Dependency string
	Err        error
}

func NewDependencyError(dependency string, err error) *DependencyError {
	return &DependencyError{Dependency: dependency, Err: err}
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

type MailKind string

const (
	MailNotification MailKind = "notification"
	MailConfirmation MailKind = "confirmation"
)

type MailDeliveryError struct {
	Kind MailKind
	Err  error
}

func (e *MailDeliveryError) Error() string {
	return fmt.Sprintf("%s mail delivery failed: %v", e.Kind, e.Err)
}

func (e *MailDeliveryError) Unwrap() error { return e.Err }

// KindOf classifies err into one of the known kinds.
func KindOf(err error) Kind {
	var (
		inputErr     *ClientInputError
		malformedErr *MalformedBodyError
		captchaErr   *CaptchaError
		limitErr     *RateLimitExceededError
		depErr       *DependencyError
		mailErr      *MailDeliveryError
	)
	switch {
	case errors.As(err, &inputErr):
		return KindClientInput
	case errors.As(err, &malformedErr):
		return KindMalformedBody
	case errors.As(err, &captchaErr):
		return KindCaptcha
	case errors.As(err, &limitErr):
		return KindRateLimited
	case errors.As(err, &depErr), errors.As(err, &mailErr):
		return KindDependency
	default:
		return KindInternal
	}
}
