package service

import (
	"context"
	"time"
)

// Liability event kinds emitted into the audit sink.
const (
	LiabilityKindEscalation  = "liabilityEscalation"
	LiabilityKindSyncFailure = "syncFailure"
)

// LiabilityEvent is a one-way audit record for failures that must never be
// silent: a critical/high notification exhausting every channel, or an
// emergency change rejected by the remote API.
type LiabilityEvent struct {
	RequestID  string         `json:"request_id,omitempty"` // For distributed tracing
	EventID    string         `json:"event_id"`
	Kind       string         `json:"kind"`
	MessageID  string         `json:"message_id,omitempty"`
	ChangeID   string         `json:"change_id,omitempty"`
	Type       string         `json:"type,omitempty"`
	Priority   string         `json:"priority,omitempty"`
	Reason     string         `json:"reason"`
	Channels   []string       `json:"channels,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// AuditPublisher defines the interface for the audit/liability log: a
// fire-and-forget event sink with no acknowledgement expected back.
type AuditPublisher interface {
	// PublishLiabilityEvent publishes an audit event for async recording.
	PublishLiabilityEvent(ctx context.Context, event *LiabilityEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
