package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

type HandlerTransport struct {
	// Contact
	ContactHandler Handler

	// Logging sinks
	SecurityLogHandler   Handler
	MonitoringLogHandler Handler

	// OpenAI
	TranscribeHandler Handler

	// System
	GetVersionHandler Handler
	HealthHandler     Handler
}
