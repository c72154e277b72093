package handler

import (
	"github.com/gofiber/fiber/v2"

	"converterapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, svc service.ConverterService) {
	app.Get("/", Root())
	app.Get("/probe", Probe())
	app.Get("/health", HealthCheck())
	app.Get("/docs", Docs())

	g := app.Group("/word_to_ppt")
	g.Post("/convert", ConvertDocument(svc))
	g.Get("/download/:file_name", DownloadArtifact(svc))
}
