package model

import "time"

// Enrollment statuses
const (
	EnrollmentStatusActive    = "ACTIVE"
	EnrollmentStatusCompleted = "COMPLETED"
	EnrollmentStatusRevoked   = "REVOKED"
)

// ActiveEnrollmentStatuses are the statuses covered by the per-user course uniqueness index
var ActiveEnrollmentStatuses = []string{EnrollmentStatusActive, EnrollmentStatusCompleted}

// Enrollment grants a user access to a course
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Status    string    `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`

	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:RESTRICT" json:"course,omitempty"`
}
