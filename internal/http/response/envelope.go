// Package response defines the JSON envelope shared by every endpoint.
package response

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Status     string `json:"status" example:"success"`
	StatusCode int    `json:"status_code" example:"200"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

// ErrorData is the data payload of an error envelope.
type ErrorData struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type" example:"Bad Request"`
}

// Success builds a success envelope. A nil data is rendered as an empty object.
func Success(code int, message string, data any) Envelope {
	if data == nil {
		data = fiber.Map{}
	}
	return Envelope{
		Status:     StatusSuccess,
		StatusCode: code,
		Message:    message,
		Data:       data,
	}
}

// Error builds an error envelope whose error_type is the reason phrase of code.
func Error(code int, message, errText string) Envelope {
	return Envelope{
		Status:     StatusError,
		StatusCode: code,
		Message:    message,
		Data: ErrorData{
			Error:     errText,
			ErrorType: ReasonPhrase(code),
		},
	}
}

// ReasonPhrase returns the standard HTTP reason phrase for code, or "Unknown Status".
func ReasonPhrase(code int) string {
	if msg := utils.StatusMessage(code); msg != "" {
		return msg
	}
	return "Unknown Status"
}

// Send writes env with its status code.
func Send(c *fiber.Ctx, env Envelope) error {
	return c.Status(env.StatusCode).JSON(env)
}
