package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

var ErrMissingHandler = errors.New("required handler is not configured")

type ServerRouter interface {
	BuildRoutes(router *fiber.App) error
}
