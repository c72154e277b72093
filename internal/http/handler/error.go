package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"converterapi/internal/http/middleware"
	"converterapi/internal/http/response"
)

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ErrorHandler returns a Fiber global error handler that renders every error
// reaching the router, such as unknown routes, wrong methods, oversized bodies
// and recovered panics, as an error envelope. Internal details of 5xx errors
// are logged, not returned.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		var env response.Envelope
		switch status {
		case fiber.StatusBadRequest:
			env = response.Error(status, "Bad request.", fe.Message)
		case fiber.StatusNotFound:
			env = response.Error(status, "Resource not found.", "Not Found")
		case fiber.StatusMethodNotAllowed:
			env = response.Error(status, "Method not allowed.", "Method Not Allowed")
		case fiber.StatusRequestEntityTooLarge:
			env = response.Error(status, "The uploaded file is too large.", "Request Entity Too Large")
		default:
			log.Error().
				Err(err).
				Str("request_id", requestIDFromCtx(c)).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("unhandled error")
			env = response.Error(status, "Internal server error.", response.ReasonPhrase(status))
		}
		return response.Send(c, env)
	}
}
