package service

import (
	"context"

	"medsync/internal/domain/entity"
)

// RemoteStore is the remote persistence API, one upsert per entity type.
// Writes are at-least-once: the implementation attaches an idempotency key
// derived from the change id, but the server side owns deduplication.
type RemoteStore interface {
	UpsertMedication(ctx context.Context, change *entity.PendingChange) error
	UpsertSchedule(ctx context.Context, change *entity.PendingChange) error
	RecordAdherenceEvent(ctx context.Context, change *entity.PendingChange) error
	RecordEmergencyEvent(ctx context.Context, change *entity.PendingChange) error

	// Healthy reports whether the remote API answers its health endpoint.
	// Used by the connectivity probe.
	Healthy(ctx context.Context) bool
}
