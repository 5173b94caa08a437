package impl

import (
	"context"
	"testing"

	"medsync/internal/domain/entity"
	domainerrors "medsync/internal/domain/errors"
	"medsync/internal/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestQueueService() (*queueService, *fakeChangeQueueRepo, *fakeNotificationLogRepo) {
	changeRepo := newFakeChangeQueueRepo()
	logRepo := newFakeNotificationLogRepo()
	svc := NewQueueService(changeRepo, logRepo, newTestLogger()).(*queueService)

	return svc, changeRepo, logRepo
}

func TestQueueService_Enqueue_Success(t *testing.T) {
	svc, _, _ := createTestQueueService()
	ctx := context.Background()

	change, err := svc.Enqueue(ctx, entity.EntityMedication, map[string]any{"name": "aspirin", "dose": "100mg"})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, change.ID)
	assert.Equal(t, entity.EntityMedication, change.EntityType)
	assert.False(t, change.Synced)
	assert.False(t, change.CreatedAt.IsZero())

	count, err := svc.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestQueueService_Enqueue_InvalidEntityType(t *testing.T) {
	svc, _, _ := createTestQueueService()

	change, err := svc.Enqueue(context.Background(), entity.EntityType("prescriptionNote"), map[string]any{})

	require.Error(t, err)
	assert.Nil(t, change)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidEntityType))
}

func TestQueueService_Enqueue_StorageFailureSurfaces(t *testing.T) {
	svc, changeRepo, _ := createTestQueueService()
	changeRepo.appendErr = domainerrors.NewStorageExecuteError(errors.New("disk full"), "append")

	_, err := svc.Enqueue(context.Background(), entity.EntitySchedule, map[string]any{"time": "08:00"})

	require.Error(t, err)

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "STORAGE_UNAVAILABLE", appErr.ErrorCode())
}

func TestQueueService_MarkSynced_Idempotent(t *testing.T) {
	svc, _, _ := createTestQueueService()
	ctx := context.Background()

	change, err := svc.Enqueue(ctx, entity.EntityAdherenceEvent, map[string]any{"taken": true})
	require.NoError(t, err)

	flipped, err := svc.MarkSynced(ctx, change.ID)
	require.NoError(t, err)
	assert.True(t, flipped)

	// Second call is a benign no-op, not an error.
	flipped, err = svc.MarkSynced(ctx, change.ID)
	require.NoError(t, err)
	assert.False(t, flipped)

	count, err := svc.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestQueueService_MarkSynced_UnknownID(t *testing.T) {
	svc, _, _ := createTestQueueService()

	flipped, err := svc.MarkSynced(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.False(t, flipped)
}

func TestQueueService_ListPending_FiltersByType(t *testing.T) {
	svc, _, _ := createTestQueueService()
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, entity.EntityMedication, map[string]any{"name": "a"})
	require.NoError(t, err)
	_, err = svc.Enqueue(ctx, entity.EntitySchedule, map[string]any{"time": "08:00"})
	require.NoError(t, err)
	_, err = svc.Enqueue(ctx, entity.EntityMedication, map[string]any{"name": "b"})
	require.NoError(t, err)

	medType := entity.EntityMedication
	meds, err := svc.ListPending(ctx, &medType)
	require.NoError(t, err)
	assert.Len(t, meds, 2)

	all, err := svc.ListPending(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestQueueService_Clear_WipesQueueAndLog(t *testing.T) {
	svc, _, logRepo := createTestQueueService()
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, entity.EntityMedication, map[string]any{"name": "a"})
	require.NoError(t, err)
	require.NoError(t, logRepo.Create(ctx, &entity.NotificationMessage{ID: uuid.New(), DeliveryState: entity.DeliverySent}))

	require.NoError(t, svc.Clear(ctx))

	count, err := svc.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	recent, err := logRepo.FindRecent(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
