package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Instructor share statuses
const (
	ShareStatusPending  = "PENDING"
	ShareStatusApproved = "APPROVED"
	ShareStatusRejected = "REJECTED"
)

// Course is a sellable course in the catalog
type Course struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
	Title       string          `gorm:"not null" json:"title"`
	Slug        string          `gorm:"uniqueIndex;not null" json:"slug"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	OfferPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"offer_price"` // 0 means no offer
	IsFree      bool            `gorm:"default:false" json:"is_free"`
	IsActive    bool            `gorm:"not null" json:"is_active"`
	Published   bool            `gorm:"not null" json:"published"`

	// Relationships
	Instructors []CourseInstructor `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"instructors,omitempty"`
}

// Purchasable reports whether the course can be ordered
func (c Course) Purchasable() bool {
	return c.IsActive && c.Published
}

// CourseInstructor links an instructor to a course with a revenue share percent
type CourseInstructor struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	CourseID     uint            `gorm:"not null;uniqueIndex:idx_course_instructor" json:"course_id"`
	InstructorID uint            `gorm:"not null;uniqueIndex:idx_course_instructor;index" json:"instructor_id"`
	Share        decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"share"` // percent, 0-100
	Status       string          `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`

	// Relationships
	Instructor User `gorm:"foreignKey:InstructorID;constraint:OnDelete:CASCADE" json:"instructor,omitempty"`
}

// TableName specifies the table name for CourseInstructor
func (CourseInstructor) TableName() string {
	return "course_instructors"
}
