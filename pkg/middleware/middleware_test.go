package middleware_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	securityMocks "github.com/NeuralTrust/FormGate/pkg/app/security/mocks"
	"github.com/NeuralTrust/FormGate/pkg/domain/contact"
	"github.com/NeuralTrust/FormGate/pkg/domain/contact/mocks"
	"github.com/NeuralTrust/FormGate/pkg/domain/security"
	"github.com/NeuralTrust/FormGate/pkg/infra/ratelimit"
	"github.com/NeuralTrust/FormGate/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	for _, h := range handlers {
		app.Use(h)
	}
	ok := func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"success": true}) }
	app.Get("/api/version", ok)
	app.Post("/api/contact", ok)
	app.Get("/api/external/ping", ok)
	app.Get("/api/boom", func(*fiber.Ctx) error { panic("kaboom") })
	app.Get("/api/fail", func(*fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "teapot") })
	return app
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]string
	require.NoError(t, json.Unmarshal(body, &out))
	return out["error"]
}

func TestPanicRecoverMiddleware(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	app := newApp(middleware.NewPanicRecoverMiddleware(logger).Middleware())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/boom", nil))

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", decodeError(t, resp))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "HTTP server panic recovered", hook.LastEntry().Message)
}

func TestMetricsMiddleware_RequestID(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	app := newApp(middleware.NewMetricsMiddleware(logger, time.Second).Middleware())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/version", nil))
	require.NoError(t, err)
	_, parseErr := uuid.Parse(resp.Header.Get("X-Request-ID"))
	assert.NoError(t, parseErr)

	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set("X-Request-ID", given)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, given, resp.Header.Get("X-Request-ID"))
}

func TestMetricsMiddleware_HandlerErrorStatus(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	app := newApp(middleware.NewMetricsMiddleware(logger, time.Second).Middleware())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/fail", nil))

	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestMetricsMiddleware_SlowRequestWarns(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	app := fiber.New()
	app.Use(middleware.NewMetricsMiddleware(logger, time.Millisecond).Middleware())
	app.Get("/api/slow", func(c *fiber.Ctx) error {
		time.Sleep(5 * time.Millisecond)
		return c.SendStatus(fiber.StatusOK)
	})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/slow", nil))

	require.NoError(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "slow request", hook.LastEntry().Message)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	app := newApp(middleware.NewSecurityHeadersMiddleware().Middleware())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.NoError(t, err)
	assert.Equal(t, "1; mode=block", resp.Header.Get("X-XSS-Protection"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", resp.Header.Get("Strict-Transport-Security"))
	assert.Equal(t, "strict-origin-when-cross-origin", resp.Header.Get("Referrer-Policy"))
	assert.Equal(t, "camera=(), microphone=(), geolocation=(), interest-cohort=()", resp.Header.Get("Permissions-Policy"))
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "hcaptcha.com")
}

func TestSuspiciousRequestMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		header  string
		blocked bool
	}{
		{name: "clean", target: "/api/version", blocked: false},
		{name: "subrequest header", target: "/api/version", header: "X-Middleware-Subrequest", blocked: true},
		{name: "powered by header", target: "/api/version", header: "X-Powered-By", blocked: true},
		{name: "traversal in query", target: "/api/version?file=../etc/passwd", blocked: true},
		{name: "encoded script", target: "/api/version?q=%3Cscript%3Ealert(1)", blocked: true},
		{name: "javascript scheme", target: "/api/version?next=javascript:alert(1)", blocked: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := new(securityMocks.MockRecorder)
			recorder.On("Record", mock.Anything, mock.MatchedBy(func(evt security.Event) bool {
				return evt.Type == security.SuspiciousActivity
			}))
			app := newApp(middleware.NewSuspiciousRequestMiddleware(recorder).Middleware())

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, "1")
			}
			resp, err := app.Test(req)
			require.NoError(t, err)

			if tt.blocked {
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
				assert.Equal(t, "Forbidden", decodeError(t, resp))
				recorder.AssertNumberOfCalls(t, "Record", 1)
				return
			}
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
		})
	}
}

func TestCORSGlobalMiddleware(t *testing.T) {
	app := newApp(middleware.NewCORSGlobalMiddleware([]string{"https://studio.example"}).Middleware())

	t.Run("no origin passes", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/version", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
		req.Header.Set("Origin", "https://studio.example")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "https://studio.example", resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
		req.Header.Set("Origin", "https://studio.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
	})

	t.Run("foreign origin rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.Header.Set("Origin", "https://evil.example")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "CORS policy violation", decodeError(t, resp))
	})
}

func TestBodyLimitMiddleware(t *testing.T) {
	app := newApp(middleware.NewBodyLimitMiddleware(16).Middleware())

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{"name":"x"}`)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(strings.Repeat("a", 64))))
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "Request body too large", decodeError(t, resp))
}

func TestRateLimitMiddleware(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	reset := time.Now().Add(15 * time.Minute)

	t.Run("allowed sets headers", func(t *testing.T) {
		limiter := new(mocks.MockRateLimiter)
		limiter.On("TryAcquire", mock.Anything, "/api/version:198.51.100.1").
			Return(contact.Decision{Allowed: true, Count: 1, Limit: 100, Remaining: 99, ResetAt: reset}, nil)
		app := newApp(middleware.NewRateLimitMiddleware(logger, limiter, nil, 15*time.Minute).Middleware())

		req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
		req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
		resp, err := app.Test(req)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "100", resp.Header.Get("X-RateLimit-Limit"))
		assert.Equal(t, "99", resp.Header.Get("X-RateLimit-Remaining"))
	})

	t.Run("rejected", func(t *testing.T) {
		limiter := new(mocks.MockRateLimiter)
		limiter.On("TryAcquire", mock.Anything, mock.Anything).
			Return(contact.Decision{Allowed: false, Count: 100, Limit: 100, ResetAt: reset}, nil)
		recorder := new(securityMocks.MockRecorder)
		recorder.On("Record", mock.Anything, mock.MatchedBy(func(evt security.Event) bool {
			return evt.Type == security.RateLimitViolation
		})).Once()
		app := newApp(middleware.NewRateLimitMiddleware(logger, limiter, recorder, 15*time.Minute).Middleware())

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/version", nil))

		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "900", resp.Header.Get("Retry-After"))
		assert.Equal(t, "Too many requests", decodeError(t, resp))
		recorder.AssertExpectations(t)
	})

	t.Run("store down fails open", func(t *testing.T) {
		limiter := new(mocks.MockRateLimiter)
		limiter.On("TryAcquire", mock.Anything, mock.Anything).
			Return(contact.Decision{Allowed: true}, errors.New("redis down"))
		app := newApp(middleware.NewRateLimitMiddleware(logger, limiter, nil, 15*time.Minute).Middleware())

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/version", nil))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestAPIKeyMiddleware(t *testing.T) {
	recorder := new(securityMocks.MockRecorder)
	recorder.On("Record", mock.Anything, mock.MatchedBy(func(evt security.Event) bool {
		return evt.Type == security.AuthFailure
	}))
	app := newApp(middleware.NewAPIKeyMiddleware("k3y", recorder).Middleware())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/version", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/external/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid API key", decodeError(t, resp))

	req := httptest.NewRequest(http.MethodGet, "/api/external/ping", nil)
	req.Header.Set("X-API-Key", "k3y")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	recorder.AssertNumberOfCalls(t, "Record", 1)
}

func TestSecretEqual(t *testing.T) {
	assert.True(t, middleware.SecretEqual("abc", "abc"))
	assert.False(t, middleware.SecretEqual("abd", "abc"))
	assert.False(t, middleware.SecretEqual("", ""))
}

func TestTokenBucketMiddleware(t *testing.T) {
	store := ratelimit.NewTokenBucketStore(0.001, 2)
	app := newApp(middleware.NewTokenBucketMiddleware(store).Middleware())

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/version", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/version", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestTransport_HandlersSkipsUnset(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	transport := middleware.Transport{
		PanicRecoverMiddleware:    middleware.NewPanicRecoverMiddleware(logger),
		SecurityHeadersMiddleware: middleware.NewSecurityHeadersMiddleware(),
	}

	assert.Len(t, transport.Handlers(), 2)
}
