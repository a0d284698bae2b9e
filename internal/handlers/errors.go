package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/truenumber/internal/services"
)

// statusFor maps service failure kinds onto HTTP statuses. Every kind keeps a
// distinct, stable status so clients can tell resend-worthy failures apart
// from cool-downs and plain rejections.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, services.ErrRateLimited):
		return fiber.StatusTooManyRequests, true
	case errors.Is(err, services.ErrInvalidCode):
		return fiber.StatusBadRequest, true
	case errors.Is(err, services.ErrExpired):
		return fiber.StatusGone, true
	case errors.Is(err, services.ErrAttemptsExceeded):
		return fiber.StatusTooManyRequests, true
	case errors.Is(err, services.ErrInvalidToken):
		return fiber.StatusUnauthorized, true
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound, true
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden, true
	case errors.Is(err, services.ErrInvalidTransition):
		return fiber.StatusConflict, true
	}
	return 0, false
}

// serviceError converts a service failure into a fiber error, passing
// unknown errors through for the 500 handler.
func serviceError(err error) error {
	if status, ok := statusFor(err); ok {
		return fiber.NewError(status, err.Error())
	}
	return err
}
