package cart

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursecheckout-api/handlers/apierr"
	"github.com/sahilchouksey/coursecheckout-api/services"
	"github.com/sahilchouksey/coursecheckout-api/utils/middleware"
	"github.com/sahilchouksey/coursecheckout-api/utils/response"
	"github.com/sahilchouksey/coursecheckout-api/utils/validation"
)

// CartHandler handles the user's cart and cart checkout
type CartHandler struct {
	carts     *services.CartService
	orders    *services.OrderService
	validator *validation.Validator
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *services.CartService, orders *services.OrderService) *CartHandler {
	return &CartHandler{
		carts:     carts,
		orders:    orders,
		validator: validation.NewValidator(),
	}
}

// AddItemRequest represents the request body for adding a course to the cart
type AddItemRequest struct {
	CourseID uint `json:"course_id" validate:"required,gt=0"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	cart, err := h.carts.GetCart(c.UserContext(), userID)
	if err != nil {
		return apierr.Respond(c, err, "Failed to fetch cart")
	}

	return response.Success(c, cart)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.FieldErrors(c, validation.FormatValidationErrors(err))
	}

	cart, err := h.carts.AddItem(c.UserContext(), userID, req.CourseID)
	if err != nil {
		return apierr.Respond(c, err, "Failed to add course to cart")
	}

	return response.SuccessWithMessage(c, "Course added to cart", cart)
}

// RemoveItem handles DELETE /api/v1/cart/items/:course_id
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("course_id"), 10, 32)
	if err != nil || courseID == 0 {
		return response.BadRequest(c, "Invalid course ID")
	}

	cart, err := h.carts.RemoveItem(c.UserContext(), userID, uint(courseID))
	if err != nil {
		return apierr.Respond(c, err, "Failed to remove course from cart")
	}

	return response.SuccessWithMessage(c, "Course removed from cart", cart)
}

// Checkout handles POST /api/v1/cart/checkout
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	result, err := h.orders.CreateOrder(c.UserContext(), services.CreateOrderRequest{
		UserID:   userID,
		FromCart: true,
	})
	if err != nil {
		return apierr.Respond(c, err, "Failed to check out cart")
	}

	return response.Created(c, result)
}
