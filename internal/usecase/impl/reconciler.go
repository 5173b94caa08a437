package impl

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	reqctx "medsync/internal/delivery/context"
	"medsync/internal/domain/entity"
	domainerrors "medsync/internal/domain/errors"
	"medsync/internal/domain/repository"
	"medsync/internal/domain/service"
	"medsync/internal/errors"
	"medsync/internal/usecase"

	"github.com/google/uuid"
)

type reconciler struct {
	changeRepo repository.ChangeQueueRepository
	remote     service.RemoteStore
	monitor    usecase.ConnectivityMonitor
	audit      service.AuditPublisher
	logger     *slog.Logger

	draining atomic.Bool
}

// NewReconciler creates a new sync reconciler instance
func NewReconciler(
	changeRepo repository.ChangeQueueRepository,
	remote service.RemoteStore,
	monitor usecase.ConnectivityMonitor,
	audit service.AuditPublisher,
	logger *slog.Logger,
) usecase.SyncUsecase {
	return &reconciler{
		changeRepo: changeRepo,
		remote:     remote,
		monitor:    monitor,
		audit:      audit,
		logger:     logger,
	}
}

// Drain replays pending changes against the remote store. Entries of the same
// entity type go oldest-first so a later edit of the same record lands last;
// types are independent replay groups. A rejected entry is skipped and the
// drain continues, a transport failure stops the pass since every later call
// would fail the same way. At most one drain runs at a time; an overlapping
// call does no remote work and only reports the current queue size.
func (s *reconciler) Drain(ctx context.Context) (*usecase.DrainResult, error) {
	if !s.draining.CompareAndSwap(false, true) {
		remaining, err := s.changeRepo.CountPending(ctx)
		if err != nil {
			return nil, err
		}

		reqctx.GetLoggerOrDefault(ctx, s.logger).Debug("Drain already in progress, skipping",
			slog.Int64("remaining", remaining),
		)

		return &usecase.DrainResult{RemainingPending: remaining}, nil
	}
	defer s.draining.Store(false)

	result := &usecase.DrainResult{}

	for _, entityType := range entity.EntityTypes() {
		stopped, err := s.drainType(ctx, entityType, result)
		if err != nil {
			return nil, err
		}
		if stopped {
			break
		}
	}

	remaining, err := s.changeRepo.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	result.RemainingPending = remaining

	reqctx.GetLoggerOrDefault(ctx, s.logger).Info("Drain pass finished",
		slog.Int("synced", result.SyncedCount),
		slog.Int("failed", result.FailedCount),
		slog.Int64("remaining", remaining),
	)

	return result, nil
}

// drainType replays one entity type's pending entries. The bool return
// reports whether the whole drain should stop early.
func (s *reconciler) drainType(ctx context.Context, entityType entity.EntityType, result *usecase.DrainResult) (bool, error) {
	changes, err := s.changeRepo.FindPending(ctx, &entityType)
	if err != nil {
		return false, err
	}

	logger := reqctx.GetLoggerOrDefault(ctx, s.logger)

	for _, change := range changes {
		if !s.monitor.State().Online() {
			logger.Info("Connectivity lost mid-drain, stopping",
				slog.String("entity_type", string(entityType)),
			)

			return true, nil
		}

		err := s.pushChange(ctx, change)
		if err == nil {
			if _, err := s.changeRepo.MarkSynced(ctx, change.ID); err != nil {
				return false, err
			}
			result.SyncedCount++

			continue
		}

		if errors.Is(err, domainerrors.ErrNetworkUnavailable) {
			logger.Warn("Remote unreachable mid-drain, stopping",
				slog.String("change_id", change.ID.String()),
				slog.Any("error", err),
			)
			s.monitor.Report(entity.ConnectivityOffline)

			return true, nil
		}

		// Rejected by the server: the entry stays pending, the drain moves on.
		result.FailedCount++
		logger.Warn("Remote rejected change",
			slog.String("change_id", change.ID.String()),
			slog.String("entity_type", string(change.EntityType)),
			slog.Any("error", err),
		)

		if change.EntityType == entity.EntityEmergencyEvent {
			s.publishSyncFailure(ctx, change, err)
		}
	}

	return false, nil
}

// pushChange routes one change to the remote write matching its entity type.
func (s *reconciler) pushChange(ctx context.Context, change *entity.PendingChange) error {
	switch change.EntityType {
	case entity.EntityMedication:
		return s.remote.UpsertMedication(ctx, change)
	case entity.EntitySchedule:
		return s.remote.UpsertSchedule(ctx, change)
	case entity.EntityAdherenceEvent:
		return s.remote.RecordAdherenceEvent(ctx, change)
	case entity.EntityEmergencyEvent:
		return s.remote.RecordEmergencyEvent(ctx, change)
	default:
		return domainerrors.ErrInvalidEntityType.WithDetails(string(change.EntityType))
	}
}

// publishSyncFailure records a rejected emergency event in the audit sink.
// Emergency data that fails to reach the server is a liability, not a retry detail.
func (s *reconciler) publishSyncFailure(ctx context.Context, change *entity.PendingChange, cause error) {
	event := &service.LiabilityEvent{
		RequestID:  reqctx.GetRequestIDFromContext(ctx),
		EventID:    uuid.New().String(),
		Kind:       service.LiabilityKindSyncFailure,
		ChangeID:   change.ID.String(),
		Type:       string(change.EntityType),
		Reason:     cause.Error(),
		Payload:    change.Payload,
		OccurredAt: time.Now().UTC(),
	}

	if err := s.audit.PublishLiabilityEvent(ctx, event); err != nil {
		reqctx.GetLoggerOrDefault(ctx, s.logger).Error("Failed to publish sync failure audit event",
			slog.String("change_id", change.ID.String()),
			slog.Any("error", err),
		)
	}
}
