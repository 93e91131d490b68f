package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/tijara/internal/services"
)

// ErrorHandler maps service-layer errors onto HTTP responses. Internal errors
// are logged and surfaced as a generic message, never raw.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var validation *services.ValidationError
	if errors.As(err, &validation) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   validation.Reason,
			"field":   validation.Field,
		})
	}

	var authz *services.AuthorizationError
	if errors.As(err, &authz) {
		log.Printf("[HTTP] forbidden: %s", authz.Reason)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "forbidden",
		})
	}

	var conflict *services.ConflictError
	if errors.As(err, &conflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   conflict.Reason,
		})
	}

	var throttled *services.ThrottledError
	if errors.As(err, &throttled) {
		retryAfter := int(throttled.RetryAfter.Seconds() + 0.5)
		c.Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success":     false,
			"error":       "too many requests",
			"retry_after": retryAfter,
		})
	}

	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "not found",
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"success": false,
			"error":   fiberErr.Message,
		})
	}

	log.Printf("[HTTP] internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "internal server error",
	})
}
