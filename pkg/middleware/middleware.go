package middleware

import "github.com/gofiber/fiber/v2"

type Middleware interface {
	Middleware() fiber.Handler
}

// Transport is the ordered middleware chain mounted on /api.
type Transport struct {
	PanicRecoverMiddleware      Middleware
	MetricsMiddleware           Middleware
	SecurityHeadersMiddleware   Middleware
	SuspiciousRequestMiddleware Middleware
	CORSMiddleware              Middleware
	BodyLimitMiddleware         Middleware
	RateLimitMiddleware         Middleware
	APIKeyMiddleware            Middleware
}

// Handlers returns the chain in execution order, skipping unset entries.
func (t Transport) Handlers() []fiber.Handler {
	ordered := []Middleware{
		t.PanicRecoverMiddleware,
		t.MetricsMiddleware,
		t.SecurityHeadersMiddleware,
		t.SuspiciousRequestMiddleware,
		t.CORSMiddleware,
		t.BodyLimitMiddleware,
		t.RateLimitMiddleware,
		t.APIKeyMiddleware,
	}
	handlers := make([]fiber.Handler, 0, len(ordered))
	for _, m := range ordered {
		if m != nil {
			handlers = append(handlers, m.Middleware())
		}
	}
	return handlers
}
