package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Payment statuses. PENDING moves to COMPLETED or FAILED exactly once.
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

// Payment providers
const (
	PaymentProviderRazorpay = "razorpay"
	PaymentProviderFree     = "free"
)

// Payment is an attempt to settle an order
type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	OrderID       uint            `gorm:"not null;index" json:"order_id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(10);not null;default:'INR'" json:"currency"`
	TxnID         string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"txn_id"` // gateway intent id or free_<uuid>
	Provider      string          `gorm:"type:varchar(20);not null" json:"provider"`
	Status        string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	FailureReason string          `gorm:"type:text" json:"failure_reason,omitempty"`
	Metadata      datatypes.JSON  `json:"metadata,omitempty"`

	ProviderPayment *ProviderPayment `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE" json:"provider_payment,omitempty"`
}

// ProviderPayment records the gateway confirmation for a completed payment
type ProviderPayment struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	PaymentID         uint      `gorm:"not null;uniqueIndex" json:"payment_id"`
	ProviderPaymentID string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"provider_payment_id"`
	Signature         string    `gorm:"type:varchar(128);not null" json:"-"`
}
