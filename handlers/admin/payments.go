package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursecheckout-api/handlers/apierr"
	"github.com/sahilchouksey/coursecheckout-api/model"
	"github.com/sahilchouksey/coursecheckout-api/services"
	"github.com/sahilchouksey/coursecheckout-api/utils/response"
	"github.com/sahilchouksey/coursecheckout-api/utils/validation"
)

// AdminHandler handles back-office requests
type AdminHandler struct {
	payments    *services.PaymentService
	instructors *services.InstructorService
	staleAfter  time.Duration
	validator   *validation.Validator
}

// NewAdminHandler creates a new admin handler. staleAfter is the default age
// at which a PENDING payment is reported as stale.
func NewAdminHandler(payments *services.PaymentService, instructors *services.InstructorService, staleAfter time.Duration) *AdminHandler {
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}
	return &AdminHandler{
		payments:    payments,
		instructors: instructors,
		staleAfter:  staleAfter,
		validator:   validation.NewValidator(),
	}
}

// ListPayments handles GET /api/v1/admin/payments
func (h *AdminHandler) ListPayments(c *fiber.Ctx) error {
	status := strings.ToUpper(c.Query("status"))
	switch status {
	case "", model.PaymentStatusPending, model.PaymentStatusCompleted, model.PaymentStatusFailed:
	default:
		return response.BadRequest(c, "Invalid payment status")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	pagination := response.CalculatePagination(page, limit, 0)

	payments, total, err := h.payments.ListPayments(c.UserContext(), services.ListPaymentsOptions{
		Status: status,
		Page:   pagination.CurrentPage,
		Limit:  pagination.PerPage,
	})
	if err != nil {
		return apierr.Respond(c, err, "Failed to fetch payments")
	}

	return response.Paginated(c, payments, response.CalculatePagination(pagination.CurrentPage, pagination.PerPage, total))
}

// ListStalePayments handles GET /api/v1/admin/payments/stale
func (h *AdminHandler) ListStalePayments(c *fiber.Ctx) error {
	olderThan := h.staleAfter
	if raw := c.Query("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return response.BadRequest(c, "Invalid older_than duration")
		}
		olderThan = d
	}

	payments, err := h.payments.StalePendingPayments(c.UserContext(), olderThan)
	if err != nil {
		return apierr.Respond(c, err, "Failed to fetch stale payments")
	}

	return response.Success(c, fiber.Map{
		"older_than": olderThan.String(),
		"count":      len(payments),
		"payments":   payments,
	})
}
