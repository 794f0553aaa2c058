package httpapi

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-web/internal/weather"
)

// Error kinds reported to clients in addition to the fetch error kinds.
const (
	kindValidation = "validation"
	kindInternal   = "internal"
)

// statusFor maps a core error to the HTTP status returned to clients.
func statusFor(err error) int {
	var verr *weather.ValidationError
	if errors.As(err, &verr) {
		return fiber.StatusBadGateway
	}

	if kind, ok := weather.KindOf(err); ok {
		switch kind {
		case weather.KindParse, weather.KindProcessFailed:
			return fiber.StatusBadGateway
		case weather.KindTimeout:
			return fiber.StatusGatewayTimeout
		case weather.KindUnavailable:
			return fiber.StatusServiceUnavailable
		default:
			return fiber.StatusInternalServerError
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusGatewayTimeout
	}
	return fiber.StatusInternalServerError
}

// kindFor names the error class for JSON error bodies.
func kindFor(err error) string {
	var verr *weather.ValidationError
	if errors.As(err, &verr) {
		return kindValidation
	}
	if kind, ok := weather.KindOf(err); ok {
		return string(kind)
	}
	return kindInternal
}

// messageFor returns the client-facing message; details are hidden unless exposed.
func messageFor(err error, status int, expose bool) string {
	if expose {
		return err.Error()
	}
	return fiber.NewError(status).Message
}

// NewErrorHandler returns the centralized fiber error handler. Framework
// errors (unknown routes, bad methods) keep their status and message; anything
// else, such as a recovered panic, is a 500 whose detail is only sent when
// exposeErrors is set.
func NewErrorHandler(exposeErrors bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := messageFor(err, code, exposeErrors)

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		}
		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": message,
		})
	}
}
