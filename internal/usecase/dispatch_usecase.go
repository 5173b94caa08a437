package usecase

import (
	"context"

	"medsync/internal/domain/entity"
)

// ChannelOutcome records the delivery result for a single channel
type ChannelOutcome struct {
	Channel    entity.ChannelName `json:"channel"`
	Sent       bool               `json:"sent"`
	AckCapable bool               `json:"ack_capable,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// DispatchResult summarizes the fan-out of one notification
type DispatchResult struct {
	Message   *entity.NotificationMessage `json:"message"`
	Outcomes  []ChannelOutcome            `json:"outcomes"`
	Escalated bool                        `json:"escalated"`
}

// DispatchUsecase defines the interface for notification fan-out use cases
type DispatchUsecase interface {
	// Send routes a notification to the channels its type maps to and records
	// the delivery outcome. High and critical priority messages that fail on
	// every channel raise a liability escalation.
	Send(ctx context.Context, notificationType entity.NotificationType, priority entity.Priority, payload map[string]any) (*DispatchResult, error)

	// History retrieves recent notification log entries, newest-first
	History(ctx context.Context, limit, offset int) ([]*entity.NotificationMessage, error)

	// Acknowledge marks a sent in-app notification as read by the user.
	// Returns false when the message is not in the sent state or no
	// ack-capable channel accepted it.
	Acknowledge(ctx context.Context, id string) (bool, error)
}
