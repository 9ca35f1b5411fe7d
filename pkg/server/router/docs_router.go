package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

const (
	SwaggerSpecPath = "/swagger.json"
	DocsPath        = "/docs/*"
)

type docsRouter struct {
	specFile string
}

// NewDocsRouter serves the OpenAPI document from specFile and the Swagger UI
// that renders it.
func NewDocsRouter(specFile string) ServerRouter {
	return &docsRouter{specFile: specFile}
}

func (r *docsRouter) BuildRoutes(router *fiber.App) error {
	router.Get(SwaggerSpecPath, func(c *fiber.Ctx) error {
		return c.SendFile(r.specFile)
	})
	router.Get(DocsPath, swagger.New(swagger.Config{
		URL: SwaggerSpecPath,
	}))
	return nil
}
