package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/wichananm65/pet-shop-checkout/internal/apperr"
)

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput:
		return fiber.StatusBadRequest
	case apperr.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindInsufficientStock, apperr.KindInvalidState:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes business errors with their details. Anything else is
// logged and reported as a bare 500.
func respondError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		body := fiber.Map{"message": e.Message, "code": e.Kind.String()}
		if len(e.Details) > 0 {
			body["details"] = e.Details
		}
		return c.Status(statusOf(e.Kind)).JSON(body)
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
		"code":    apperr.KindInternal.String(),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": message, "code": apperr.KindInvalidInput.String()})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized", "code": apperr.KindUnauthorized.String()})
}
