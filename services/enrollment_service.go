package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sahilchouksey/coursecheckout-api/model"
	"gorm.io/gorm"
)

// EnrollmentService activates and lists course enrollments
type EnrollmentService struct {
	db *gorm.DB
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{db: db}
}

// ActiveCourseIDs returns which of courseIDs the user already holds an
// ACTIVE or COMPLETED enrollment for
func (s *EnrollmentService) ActiveCourseIDs(ctx context.Context, db *gorm.DB, userID uint, courseIDs []uint) ([]uint, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id IN ? AND status IN ?", userID, courseIDs, model.ActiveEnrollmentStatuses).
		Pluck("course_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollments: %w", err)
	}
	return ids, nil
}

// Activate creates one ACTIVE enrollment per course for the order using tx.
// With skipOwned, courses the user already holds are skipped; otherwise any
// owned course fails with ErrAlreadyEnrolled. A concurrent insert that trips
// the uniqueness index surfaces as ErrAlreadyEnrolled either way.
func (s *EnrollmentService) Activate(ctx context.Context, tx *gorm.DB, userID, orderID uint, courseIDs []uint, skipOwned bool) ([]uint, error) {
	existing, err := s.ActiveCourseIDs(ctx, tx, userID, courseIDs)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 && !skipOwned {
		return nil, fmt.Errorf("%w in course %d", ErrAlreadyEnrolled, existing[0])
	}
	owned := make(map[uint]bool, len(existing))
	for _, id := range existing {
		owned[id] = true
	}

	enrollments := make([]model.Enrollment, 0, len(courseIDs))
	activated := make([]uint, 0, len(courseIDs))
	for _, courseID := range courseIDs {
		if owned[courseID] {
			log.Warn().Uint("user_id", userID).Uint("course_id", courseID).Uint("order_id", orderID).
				Msg("[ENROLL] user already enrolled, skipping")
			continue
		}
		enrollments = append(enrollments, model.Enrollment{
			UserID:   userID,
			CourseID: courseID,
			OrderID:  orderID,
			Status:   model.EnrollmentStatusActive,
		})
		activated = append(activated, courseID)
	}

	if len(enrollments) == 0 {
		return activated, nil
	}
	if err := tx.WithContext(ctx).Create(&enrollments).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: %v", ErrAlreadyEnrolled, err)
		}
		return nil, fmt.Errorf("failed to create enrollments: %w", err)
	}

	return activated, nil
}

// ListForUser returns the user's enrollments with their courses, newest first
func (s *EnrollmentService) ListForUser(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}
