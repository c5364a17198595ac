package admin

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/sahilchouksey/coursecheckout-api/handlers/apierr"
	"github.com/sahilchouksey/coursecheckout-api/services"
	"github.com/sahilchouksey/coursecheckout-api/utils/middleware"
	"github.com/sahilchouksey/coursecheckout-api/utils/response"
	"github.com/sahilchouksey/coursecheckout-api/utils/validation"
	"github.com/shopspring/decimal"
)

// SetShareRequest represents the request body for assigning an instructor share
type SetShareRequest struct {
	Share  decimal.Decimal `json:"share"`
	Status string          `json:"status" validate:"required,oneof=PENDING APPROVED REJECTED"`
}

// SetInstructorShare handles PUT /api/v1/admin/courses/:id/instructors/:instructor_id
func (h *AdminHandler) SetInstructorShare(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || courseID == 0 {
		return response.BadRequest(c, "Invalid course ID")
	}
	instructorID, err := strconv.ParseUint(c.Params("instructor_id"), 10, 32)
	if err != nil || instructorID == 0 {
		return response.BadRequest(c, "Invalid instructor ID")
	}

	var req SetShareRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.FieldErrors(c, validation.FormatValidationErrors(err))
	}

	share, err := h.instructors.SetShare(c.UserContext(), services.SetShareRequest{
		CourseID:     uint(courseID),
		InstructorID: uint(instructorID),
		Share:        req.Share,
		Status:       req.Status,
	})
	if err != nil {
		return apierr.Respond(c, err, "Failed to update instructor share")
	}

	adminID, _ := middleware.GetUserID(c)
	log.Info().
		Uint("admin_id", adminID).
		Uint64("course_id", courseID).
		Uint64("instructor_id", instructorID).
		Str("share", share.Share.String()).
		Str("status", share.Status).
		Msg("[ADMIN] instructor share updated")

	return response.SuccessWithMessage(c, "Instructor share updated", share)
}
