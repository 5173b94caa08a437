package usecase

import "context"

// DrainResult summarizes one reconciliation pass over the change queue
type DrainResult struct {
	SyncedCount      int   `json:"synced_count"`
	FailedCount      int   `json:"failed_count"`
	RemainingPending int64 `json:"remaining_pending"`
}

// SyncUsecase defines the interface for reconciling queued changes with the remote store
type SyncUsecase interface {
	// Drain pushes all pending changes to the remote store, oldest-first per
	// entity type. At most one drain runs at a time; a concurrent call returns
	// immediately with zero counts and the current number of pending changes.
	Drain(ctx context.Context) (*DrainResult, error)
}
