package handler

import (
	"github.com/gofiber/fiber/v2"

	"converterapi/internal/http/response"
)

// SwaggerPath is where the Swagger UI is mounted.
const SwaggerPath = "/swagger/index.html"

// Root godoc
// @Summary  Service banner
// @Tags     home
// @Produce  json
// @Success  200 {object} response.Envelope
// @Router   / [get]
func Root() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return response.Send(c, response.Success(fiber.StatusOK,
			"Welcome to converter API. Access the API documentation at /docs", nil))
	}
}

// Probe godoc
// @Summary  Liveness probe
// @Tags     home
// @Produce  json
// @Success  200 {object} response.Envelope
// @Router   /probe [get]
func Probe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return response.Send(c, response.Success(fiber.StatusOK, "I am the Go Fiber API responding", nil))
	}
}

// HealthCheck godoc
// @Summary  Health check
// @Tags     home
// @Produce  json
// @Success  200 {object} response.Envelope
// @Router   /health [get]
func HealthCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return response.Send(c, response.Success(fiber.StatusOK, "Health check successful",
			fiber.Map{"status": "healthy"}))
	}
}

// Docs redirects to the Swagger UI.
func Docs() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Redirect(SwaggerPath, fiber.StatusFound)
	}
}
