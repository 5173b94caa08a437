package usecase

import (
	"context"

	"medsync/internal/domain/entity"

	"github.com/google/uuid"
)

// QueueUsecase defines the interface for durable change queue use cases
type QueueUsecase interface {
	// Enqueue appends a local data change to the durable queue.
	// The change starts in the pending state and survives restarts.
	Enqueue(ctx context.Context, entityType entity.EntityType, payload map[string]any) (*entity.PendingChange, error)

	// ListPending retrieves pending changes oldest-first, optionally filtered by entity type
	ListPending(ctx context.Context, entityType *entity.EntityType) ([]*entity.PendingChange, error)

	// MarkSynced flags a change as synchronized. Returns false when the change
	// was already synced or does not exist.
	MarkSynced(ctx context.Context, id uuid.UUID) (bool, error)

	// CountPending returns the number of changes still awaiting synchronization
	CountPending(ctx context.Context) (int64, error)

	// Clear removes all queued changes. Intended for account sign-out.
	Clear(ctx context.Context) error
}
