// Package events implements the transactional outbox: domain events are stored
// alongside the state change that produced them and relayed to a broker later.
package events

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sahilchouksey/coursecheckout-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event types
const (
	OrderCreated        = "order.created"
	PaymentCompleted    = "payment.completed"
	PaymentFailed       = "payment.failed"
	EnrollmentActivated = "enrollment.activated"
)

// OrderCreatedPayload is published when an order is persisted
type OrderCreatedPayload struct {
	OrderID     uint   `json:"order_id"`
	UserID      uint   `json:"user_id"`
	TotalAmount string `json:"total_amount"`
	Currency    string `json:"currency"`
	CourseIDs   []uint `json:"course_ids"`
	Free        bool   `json:"free"`
}

// PaymentPayload is published when a payment reaches a terminal status
type PaymentPayload struct {
	PaymentID uint   `json:"payment_id"`
	OrderID   uint   `json:"order_id"`
	UserID    uint   `json:"user_id"`
	TxnID     string `json:"txn_id"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// EnrollmentPayload is published when enrollments are activated for an order
type EnrollmentPayload struct {
	OrderID   uint   `json:"order_id"`
	UserID    uint   `json:"user_id"`
	CourseIDs []uint `json:"course_ids"`
}

// Record stores an event using tx, so it commits or rolls back with the caller's writes
func Record(tx *gorm.DB, eventType string, aggregateID uint, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	event := model.OutboxEvent{
		EventType:   eventType,
		AggregateID: strconv.FormatUint(uint64(aggregateID), 10),
		Payload:     datatypes.JSON(body),
	}
	if err := tx.Create(&event).Error; err != nil {
		return fmt.Errorf("failed to record %s event: %w", eventType, err)
	}
	return nil
}
