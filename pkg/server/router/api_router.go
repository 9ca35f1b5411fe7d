package router

import (
	handlers "github.com/NeuralTrust/FormGate/pkg/handlers/http"
	"github.com/NeuralTrust/FormGate/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

const (
	HealthPath          = "/health"
	APIPrefix           = "/api"
	ContactPath         = "/contact"
	ExternalContactPath = "/external/contact"
	VersionPath         = "/version"
	SecurityLogPath     = "/security/log"
	MonitoringLogPath   = "/monitoring/log"
	TranscribePath      = "/openai/transcribe"
)

type apiRouter struct {
	middlewareTransport middleware.Transport
	handlerTransport    handlers.HandlerTransport
	logGuard            middleware.Middleware
}

// NewAPIRouter mounts the public routes. logGuard throttles the logging
// sinks in memory and may be nil.
func NewAPIRouter(
	middlewareTransport middleware.Transport,
	handlerTransport handlers.HandlerTransport,
	logGuard middleware.Middleware,
) ServerRouter {
	return &apiRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
		logGuard:            logGuard,
	}
}

func (r *apiRouter) BuildRoutes(router *fiber.App) error {
	h := r.handlerTransport
	if h.ContactHandler == nil || h.HealthHandler == nil {
		return ErrMissingHandler
	}

	router.Get(HealthPath, h.HealthHandler.Handle)

	chain := r.middlewareTransport.Handlers()
	api := router.Group(APIPrefix, chain...)

	api.Post(ContactPath, h.ContactHandler.Handle)
	api.Post(ExternalContactPath, h.ContactHandler.Handle)

	if h.GetVersionHandler != nil {
		api.Get(VersionPath, h.GetVersionHandler.Handle)
	}
	if h.SecurityLogHandler != nil {
		api.Post(SecurityLogPath, r.guarded(h.SecurityLogHandler)...)
	}
	if h.MonitoringLogHandler != nil {
		api.Post(MonitoringLogPath, r.guarded(h.MonitoringLogHandler)...)
	}
	if h.TranscribeHandler != nil {
		api.Post(TranscribePath, h.TranscribeHandler.Handle)
	}
	return nil
}

func (r *apiRouter) guarded(h handlers.Handler) []fiber.Handler {
	if r.logGuard == nil {
		return []fiber.Handler{h.Handle}
	}
	return []fiber.Handler{r.logGuard.Middleware(), h.Handle}
}
