package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"nextvideo/internal/apperr"
)

// ErrorResponse writes the standard error envelope.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindQuotaExceeded:
		return fiber.StatusForbidden
	case apperr.KindInvalidInput:
		return fiber.StatusBadRequest
	case apperr.KindMalformedResponse, apperr.KindUnavailable:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError maps a pipeline failure onto a status and envelope. Quota
// refusals also carry the paywall fields the client needs.
func (h *Handlers) writeError(c fiber.Ctx, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		h.log.Error().Err(err).Str("path", c.Path()).Msg("server: unclassified error")
		return ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}

	status := statusFor(ae.Kind)
	if status >= 500 {
		h.log.Error().Err(err).Str("stage", ae.Stage).Msg("server: request failed")
	}
	msg := ae.Message
	if status >= 500 && ae.Kind == apperr.KindUnavailable {
		msg = "An upstream service is unavailable, please try again"
	}

	if ae.Kind == apperr.KindQuotaExceeded {
		return c.Status(status).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    string(ae.Kind),
				"message": msg,
			},
			"paywall": true,
			"count":   ae.Count,
			"limit":   ae.Limit,
		})
	}
	return ErrorResponse(c, status, string(ae.Kind), msg)
}
