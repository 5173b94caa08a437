package repository

import (
	"context"
	"errors"

	"medsync/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrMessageNotFound is returned when a notification message is not found.
var ErrMessageNotFound = errors.New("notification message not found")

// NotificationLogRepository persists dispatched notification messages so the
// in-app notification center can list them and record read receipts.
type NotificationLogRepository interface {
	// Create persists a freshly dispatched message in its current state.
	Create(ctx context.Context, message *entity.NotificationMessage) error

	// UpdateState records the message's delivery state transition and whether
	// an ack-capable channel accepted it.
	UpdateState(ctx context.Context, id uuid.UUID, state entity.DeliveryState, ackCapable bool) error

	// MarkAcknowledged flips a sent, ack-capable message to acknowledged.
	// Returns false when the id is unknown or the message cannot be acknowledged.
	MarkAcknowledged(ctx context.Context, id uuid.UUID) (bool, error)

	// FindRecent returns messages newest first for the notification center.
	FindRecent(ctx context.Context, limit, offset int) ([]*entity.NotificationMessage, error)

	// DeleteAll wipes the local message log. Used on logout together with the queue.
	DeleteAll(ctx context.Context) error
}
