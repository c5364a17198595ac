package instructor

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursecheckout-api/handlers/apierr"
	"github.com/sahilchouksey/coursecheckout-api/services"
	"github.com/sahilchouksey/coursecheckout-api/utils/middleware"
	"github.com/sahilchouksey/coursecheckout-api/utils/response"
)

// EarningsHandler reports instructor revenue
type EarningsHandler struct {
	instructors *services.InstructorService
}

// NewEarningsHandler creates a new earnings handler
func NewEarningsHandler(instructors *services.InstructorService) *EarningsHandler {
	return &EarningsHandler{instructors: instructors}
}

// GetEarnings handles GET /api/v1/teacher/earnings
func (h *EarningsHandler) GetEarnings(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	summary, err := h.instructors.Earnings(c.UserContext(), userID)
	if err != nil {
		return apierr.Respond(c, err, "Failed to fetch earnings")
	}

	return response.Success(c, summary)
}
