package order

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursecheckout-api/handlers/apierr"
	"github.com/sahilchouksey/coursecheckout-api/services"
	"github.com/sahilchouksey/coursecheckout-api/utils/middleware"
	"github.com/sahilchouksey/coursecheckout-api/utils/response"
	"github.com/sahilchouksey/coursecheckout-api/utils/validation"
)

// OrderHandler handles order and payment intent requests
type OrderHandler struct {
	orders    *services.OrderService
	payments  *services.PaymentService
	validator *validation.Validator
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *services.OrderService, payments *services.PaymentService) *OrderHandler {
	return &OrderHandler{
		orders:    orders,
		payments:  payments,
		validator: validation.NewValidator(),
	}
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	CourseIDs []uint `json:"course_ids" validate:"required,min=1,max=50,dive,gt=0"`
}

// CreateOrder handles POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.FieldErrors(c, validation.FormatValidationErrors(err))
	}

	result, err := h.orders.CreateOrder(c.UserContext(), services.CreateOrderRequest{
		UserID:    userID,
		CourseIDs: req.CourseIDs,
	})
	if err != nil {
		return apierr.Respond(c, err, "Failed to create order")
	}

	return response.Created(c, result)
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	pagination := response.CalculatePagination(page, limit, 0)

	orders, total, err := h.orders.ListOrders(c.UserContext(), userID, pagination.CurrentPage, pagination.PerPage)
	if err != nil {
		return apierr.Respond(c, err, "Failed to fetch orders")
	}

	return response.Paginated(c, orders, response.CalculatePagination(pagination.CurrentPage, pagination.PerPage, total))
}

// GetOrder handles GET /api/v1/orders/:id
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	orderID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || orderID == 0 {
		return response.BadRequest(c, "Invalid order ID")
	}

	details, err := h.orders.GetOrder(c.UserContext(), uint(orderID), userID)
	if err != nil {
		return apierr.Respond(c, err, "Failed to fetch order")
	}

	return response.Success(c, details)
}

// CreatePaymentIntent handles POST /api/v1/orders/:id/payment-intents
func (h *OrderHandler) CreatePaymentIntent(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	orderID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || orderID == 0 {
		return response.BadRequest(c, "Invalid order ID")
	}

	intent, err := h.payments.CreatePaymentIntent(c.UserContext(), uint(orderID), userID)
	if err != nil {
		return apierr.Respond(c, err, "Failed to create payment intent")
	}

	return response.Created(c, intent)
}
