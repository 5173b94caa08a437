package model

import (
	"time"

	"github.com/google/uuid"
)

// PendingChangeModel is the GORM-specific struct for the 'pending_changes' table.
// It represents a locally queued mutation awaiting remote persistence.
type PendingChangeModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	EntityType string    `gorm:"type:text;not null;index:idx_pending_changes_type_created"`
	Payload    string    `gorm:"type:text;not null"` // JSON-encoded field/value mapping.
	CreatedAt  time.Time `gorm:"not null;index:idx_pending_changes_type_created"`
	Synced     bool      `gorm:"not null;default:false;index"`
}

// TableName explicitly sets the table name for GORM.
func (PendingChangeModel) TableName() string {
	return "pending_changes"
}
