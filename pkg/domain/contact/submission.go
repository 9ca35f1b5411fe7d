package contact

import (
	"context"
	"time"
)

// Submission is the contact form payload. It lives for one request and is never stored.
type Submission struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Message      string `json:"message" validate:"required,min=10,max=1000"`
	CaptchaToken string `json:"captchaToken" validate:"required"`
}

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Sanitizer interface {
	Sanitize(text string) string
}

type Validator interface {
	Validate(s Submission) error
}

type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

type RateLimiter interface {
	TryAcquire(ctx context.Context, clientID string) (Decision, error)
}

type Dispatcher interface {
	SendNotification(ctx context.Context, s Submission) error
	SendConfirmation(ctx context.Context, s Submission) error
}
