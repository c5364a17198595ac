package payment

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/sahilchouksey/coursecheckout-api/handlers/apierr"
	"github.com/sahilchouksey/coursecheckout-api/services"
	"github.com/sahilchouksey/coursecheckout-api/utils/middleware"
	"github.com/sahilchouksey/coursecheckout-api/utils/response"
	"github.com/sahilchouksey/coursecheckout-api/utils/validation"
)

// PaymentHandler handles gateway confirmations
type PaymentHandler struct {
	payments  *services.PaymentService
	guard     *middleware.VerifyAttemptGuard
	validator *validation.Validator
}

// NewPaymentHandler creates a new payment handler. guard may be nil.
func NewPaymentHandler(payments *services.PaymentService, guard *middleware.VerifyAttemptGuard) *PaymentHandler {
	return &PaymentHandler{
		payments:  payments,
		guard:     guard,
		validator: validation.NewValidator(),
	}
}

// VerifyPaymentRequest is the payload the checkout widget hands back
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required,max=64"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required,max=64"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required,max=256"`
}

// VerifyPayment handles POST /api/v1/payments/verify
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.FieldErrors(c, validation.FormatValidationErrors(err))
	}

	result, err := h.payments.VerifyPayment(c.UserContext(), services.VerifyPaymentRequest{
		UserID:            userID,
		IntentID:          req.RazorpayOrderID,
		ProviderPaymentID: req.RazorpayPaymentID,
		Signature:         req.RazorpaySignature,
	})
	if err != nil {
		if services.CategoryOf(err) == services.CategoryPayment {
			h.guard.RecordFailure(c.UserContext(), userID)
			log.Warn().
				Uint("user_id", userID).
				Str("intent_id", req.RazorpayOrderID).
				Msg("[PAYMENT] signature verification failed")
		}
		return apierr.Respond(c, err, "Failed to verify payment")
	}

	h.guard.Clear(c.UserContext(), userID)
	return response.SuccessWithMessage(c, "Payment verified", result)
}
