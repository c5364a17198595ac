package enrollment

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursecheckout-api/handlers/apierr"
	"github.com/sahilchouksey/coursecheckout-api/services"
	"github.com/sahilchouksey/coursecheckout-api/utils/middleware"
	"github.com/sahilchouksey/coursecheckout-api/utils/response"
)

// EnrollmentHandler lists what a user has access to
type EnrollmentHandler struct {
	enrollments *services.EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollments *services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// ListEnrollments handles GET /api/v1/enrollments
func (h *EnrollmentHandler) ListEnrollments(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	enrollments, err := h.enrollments.ListForUser(c.UserContext(), userID)
	if err != nil {
		return apierr.Respond(c, err, "Failed to fetch enrollments")
	}

	return response.Success(c, enrollments)
}
