package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationMessageModel is the GORM-specific struct for the
// 'notification_messages' table. It backs the in-app notification center and
// records each message's delivery lifecycle.
type NotificationMessageModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	Type          string    `gorm:"type:text;not null;index"`
	Priority      string    `gorm:"type:text;not null"`
	Payload       string    `gorm:"type:text;not null"` // JSON-encoded message data.
	Timestamp     time.Time `gorm:"not null;index"`
	DeliveryState string    `gorm:"type:text;not null;default:'pending'"`
	AckCapable    bool      `gorm:"not null;default:false"`
}

// TableName explicitly sets the table name for GORM.
func (NotificationMessageModel) TableName() string {
	return "notification_messages"
}
