// Package apierr turns service errors into API responses.
package apierr

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/sahilchouksey/coursecheckout-api/services"
	"github.com/sahilchouksey/coursecheckout-api/utils/response"
	"github.com/sahilchouksey/coursecheckout-api/utils/tracing"
)

// Respond writes the response for err according to its service category.
// Internal errors are logged and reported with fallback so details never leak.
func Respond(c *fiber.Ctx, err error, fallback string) error {
	switch services.CategoryOf(err) {
	case services.CategoryValidation:
		return response.ValidationError(c, err)
	case services.CategoryConflict:
		return response.Conflict(c, err.Error())
	case services.CategoryNotFound:
		return response.NotFound(c, err.Error())
	case services.CategoryPayment:
		return response.Error(c, fiber.StatusPaymentRequired, err.Error(), "PAYMENT_VERIFICATION_FAILED")
	case services.CategoryUpstream:
		return response.Error(c, fiber.StatusBadGateway, err.Error(), "GATEWAY_ERROR")
	default:
		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("trace_id", tracing.TraceID(c.UserContext())).
			Msg("[API] request failed")
		return response.InternalServerError(c, fallback)
	}
}
