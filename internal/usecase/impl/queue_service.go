// Package impl contains the concrete use case services.
package impl

import (
	"context"
	"log/slog"
	"time"

	reqctx "medsync/internal/delivery/context"
	"medsync/internal/domain/entity"
	domainerrors "medsync/internal/domain/errors"
	"medsync/internal/domain/repository"
	"medsync/internal/usecase"

	"github.com/google/uuid"
)

type queueService struct {
	changeRepo repository.ChangeQueueRepository
	logRepo    repository.NotificationLogRepository
	logger     *slog.Logger
}

// NewQueueService creates a new queue service instance
func NewQueueService(
	changeRepo repository.ChangeQueueRepository,
	logRepo repository.NotificationLogRepository,
	logger *slog.Logger,
) usecase.QueueUsecase {
	return &queueService{
		changeRepo: changeRepo,
		logRepo:    logRepo,
		logger:     logger,
	}
}

// Enqueue appends a local data change to the durable queue
func (s *queueService) Enqueue(ctx context.Context, entityType entity.EntityType, payload map[string]any) (*entity.PendingChange, error) {
	if !entityType.Valid() {
		return nil, domainerrors.ErrInvalidEntityType.WithDetails(string(entityType))
	}

	change := &entity.PendingChange{
		ID:         uuid.New(),
		EntityType: entityType,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
		Synced:     false,
	}

	if err := s.changeRepo.Append(ctx, change); err != nil {
		return nil, err
	}

	reqctx.GetLoggerOrDefault(ctx, s.logger).Debug("Change enqueued",
		slog.String("change_id", change.ID.String()),
		slog.String("entity_type", string(change.EntityType)),
	)

	return change, nil
}

// ListPending retrieves pending changes oldest-first
func (s *queueService) ListPending(ctx context.Context, entityType *entity.EntityType) ([]*entity.PendingChange, error) {
	if entityType != nil && !entityType.Valid() {
		return nil, domainerrors.ErrInvalidEntityType.WithDetails(string(*entityType))
	}

	return s.changeRepo.FindPending(ctx, entityType)
}

// MarkSynced flags a change as synchronized. A false return means the entry
// was already synced or never existed; callers treat that as a no-op.
func (s *queueService) MarkSynced(ctx context.Context, id uuid.UUID) (bool, error) {
	flipped, err := s.changeRepo.MarkSynced(ctx, id)
	if err != nil {
		return false, err
	}

	if !flipped {
		reqctx.GetLoggerOrDefault(ctx, s.logger).Debug("MarkSynced was a no-op",
			slog.String("change_id", id.String()),
		)
	}

	return flipped, nil
}

// CountPending returns the number of changes still awaiting synchronization
func (s *queueService) CountPending(ctx context.Context) (int64, error) {
	return s.changeRepo.CountPending(ctx)
}

// Clear removes all queued changes and the notification log. Sign-out path:
// local traces of the account are wiped regardless of sync state.
func (s *queueService) Clear(ctx context.Context) error {
	if err := s.changeRepo.DeleteAll(ctx); err != nil {
		return err
	}

	if err := s.logRepo.DeleteAll(ctx); err != nil {
		return err
	}

	reqctx.GetLoggerOrDefault(ctx, s.logger).Info("Local queue and notification log cleared")

	return nil
}
