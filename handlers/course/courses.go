package course

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursecheckout-api/model"
	"github.com/sahilchouksey/coursecheckout-api/utils/response"
	"gorm.io/gorm"
)

// CourseHandler serves the public catalog
type CourseHandler struct {
	db *gorm.DB
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB) *CourseHandler {
	return &CourseHandler{db: db}
}

func approvedInstructors(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", model.ShareStatusApproved).
		Preload("Instructor", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "role") })
}

// ListCourses handles GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	search := strings.ToLower(strings.TrimSpace(c.Query("search", "")))
	pagination := response.CalculatePagination(page, limit, 0)

	catalog := func() *gorm.DB {
		query := h.db.WithContext(c.UserContext()).Model(&model.Course{}).
			Where("is_active = ? AND published = ?", true, true)
		if search != "" {
			term := "%" + search + "%"
			query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", term, term)
		}
		return query
	}

	var total int64
	if err := catalog().Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count courses")
	}

	var courses []model.Course
	if err := catalog().
		Preload("Instructors", approvedInstructors).
		Order("created_at DESC").
		Limit(pagination.PerPage).
		Offset((pagination.CurrentPage - 1) * pagination.PerPage).
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Paginated(c, courses, response.CalculatePagination(pagination.CurrentPage, pagination.PerPage, total))
}

// GetCourse handles GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return response.BadRequest(c, "Invalid course ID")
	}

	var course model.Course
	if err := h.db.WithContext(c.UserContext()).
		Preload("Instructors", approvedInstructors).
		Where("is_active = ? AND published = ?", true, true).
		First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	return response.Success(c, course)
}
