package model

import (
	"time"

	"gorm.io/datatypes"
)

// OutboxEvent is a domain event written in the same transaction as the state
// change it describes and relayed to the message broker later.
type OutboxEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	EventType   string         `gorm:"type:varchar(100);not null" json:"event_type"`
	AggregateID string         `gorm:"type:varchar(100);not null" json:"aggregate_id"`
	Payload     datatypes.JSON `gorm:"not null" json:"payload"`
	PublishedAt *time.Time     `gorm:"index" json:"published_at"`
	Attempts    int            `gorm:"default:0" json:"attempts"`
	LastError   string         `gorm:"type:text" json:"last_error,omitempty"`
}

// TableName specifies the table name for OutboxEvent
func (OutboxEvent) TableName() string {
	return "outbox_events"
}
