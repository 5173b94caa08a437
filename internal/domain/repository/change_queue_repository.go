// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"

	"medsync/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for queue persistence.
var (
	// ErrChangeNotFound is returned when a pending change is not found.
	ErrChangeNotFound = errors.New("pending change not found")
)

// ChangeQueueRepository defines the durable local queue of pending mutations.
// Entries are append-only; the only mutation is flipping the synced flag.
type ChangeQueueRepository interface {
	// Append persists a new pending change. Purely local, no network dependency.
	Append(ctx context.Context, change *entity.PendingChange) error

	// FindPending returns unsynced changes oldest first, optionally filtered by
	// entity type (nil means all types).
	FindPending(ctx context.Context, entityType *entity.EntityType) ([]*entity.PendingChange, error)

	// MarkSynced flips the synced flag. Returns false when the id is unknown or
	// the entry was already synced; that is a benign race, not an error.
	MarkSynced(ctx context.Context, id uuid.UUID) (bool, error)

	// CountPending returns the number of unsynced entries.
	CountPending(ctx context.Context) (int64, error)

	// DeleteAll wipes every local record, synced or not. Used on logout.
	DeleteAll(ctx context.Context) error
}
