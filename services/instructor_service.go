package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sahilchouksey/coursecheckout-api/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InstructorService manages course revenue shares and instructor earnings
type InstructorService struct {
	db *gorm.DB
}

// NewInstructorService creates a new instructor service
func NewInstructorService(db *gorm.DB) *InstructorService {
	return &InstructorService{db: db}
}

// SetShareRequest assigns an instructor's share of a course
type SetShareRequest struct {
	CourseID     uint
	InstructorID uint
	Share        decimal.Decimal
	Status       string
}

// EarningLine is one instructor share of a paid order
type EarningLine struct {
	ShareID      uint            `json:"share_id"`
	OrderID      uint            `json:"order_id"`
	CourseID     uint            `json:"course_id"`
	SharePercent decimal.Decimal `json:"share_percent"`
	ShareAmount  decimal.Decimal `json:"share_amount"`
}

// EarningsSummary lists an instructor's earnings from paid orders
type EarningsSummary struct {
	InstructorID uint            `json:"instructor_id"`
	Total        decimal.Decimal `json:"total"`
	Lines        []EarningLine   `json:"lines"`
}

func validShareStatus(status string) bool {
	switch status {
	case model.ShareStatusPending, model.ShareStatusApproved, model.ShareStatusRejected:
		return true
	}
	return false
}

// SetShare creates or updates an instructor's share of a course. Approved
// shares of a course may not add up to more than 100%.
func (s *InstructorService) SetShare(ctx context.Context, req SetShareRequest) (*model.CourseInstructor, error) {
	if req.Share.IsNegative() || req.Share.GreaterThan(hundred) {
		return nil, ErrInvalidSharePct
	}
	if !validShareStatus(req.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidShareState, req.Status)
	}

	var saved model.CourseInstructor
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course model.Course
		if err := tx.Select("id").First(&course, req.CourseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrCourseUnavailable, req.CourseID)
			}
			return fmt.Errorf("failed to load course: %w", err)
		}

		var instructor model.User
		err := tx.Select("id", "role").
			Where("id = ? AND role IN ?", req.InstructorID, []string{model.RoleTeacher, model.RoleAdmin}).
			First(&instructor).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrInstructorUnknown, req.InstructorID)
			}
			return fmt.Errorf("failed to load instructor: %w", err)
		}

		if req.Status == model.ShareStatusApproved {
			var others []model.CourseInstructor
			err := tx.Where("course_id = ? AND instructor_id <> ? AND status = ?",
				req.CourseID, req.InstructorID, model.ShareStatusApproved).
				Find(&others).Error
			if err != nil {
				return fmt.Errorf("failed to load course shares: %w", err)
			}
			if total := TotalSharePercent(others).Add(req.Share); total.GreaterThan(hundred) {
				return fmt.Errorf("%w: %s%%", ErrShareLimitExceeded, total.String())
			}
		}

		err = tx.Where("course_id = ? AND instructor_id = ?", req.CourseID, req.InstructorID).First(&saved).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			saved = model.CourseInstructor{
				CourseID:     req.CourseID,
				InstructorID: req.InstructorID,
				Share:        req.Share,
				Status:       req.Status,
			}
			if err := tx.Create(&saved).Error; err != nil {
				return fmt.Errorf("failed to create course share: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to load course share: %w", err)
		default:
			saved.Share = req.Share
			saved.Status = req.Status
			if err := tx.Model(&saved).Select("share", "status").Updates(&saved).Error; err != nil {
				return fmt.Errorf("failed to update course share: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("course_id", req.CourseID).
		Uint("instructor_id", req.InstructorID).
		Str("share", req.Share.String()).
		Str("status", req.Status).
		Msg("[INSTRUCTOR] course share saved")
	return &saved, nil
}

// Earnings lists the instructor's shares on orders with a COMPLETED payment
func (s *InstructorService) Earnings(ctx context.Context, instructorID uint) (*EarningsSummary, error) {
	var lines []EarningLine
	err := s.db.WithContext(ctx).
		Table("instructor_shares AS s").
		Select("s.id AS share_id, oi.order_id, oi.course_id, s.share_percent, s.share_amount").
		Joins("JOIN order_items oi ON oi.id = s.order_item_id").
		Where("s.instructor_id = ?", instructorID).
		Where("EXISTS (SELECT 1 FROM payments p WHERE p.order_id = oi.order_id AND p.status = ?)", model.PaymentStatusCompleted).
		Order("s.id DESC").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load earnings: %w", err)
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.ShareAmount)
	}
	if lines == nil {
		lines = []EarningLine{}
	}
	return &EarningsSummary{InstructorID: instructorID, Total: total, Lines: lines}, nil
}
