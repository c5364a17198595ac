package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is an immutable purchase of one or more courses. Totals are a snapshot
// of catalog prices at creation time.
type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Currency    string          `gorm:"type:varchar(10);not null;default:'INR'" json:"currency"`

	// Relationships
	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payments []Payment   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
}

// OrderItem is one course line of an order
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	CourseID  uint            `gorm:"not null;index" json:"course_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`

	Shares []InstructorShare `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE" json:"shares,omitempty"`
}

// InstructorShare is the revenue owed to an instructor for an order item.
// Written once with its item and never updated.
type InstructorShare struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	OrderItemID  uint            `gorm:"not null;index" json:"order_item_id"`
	InstructorID uint            `gorm:"not null;index" json:"instructor_id"`
	SharePercent decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"share_percent"`
	ShareAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"share_amount"`
}
