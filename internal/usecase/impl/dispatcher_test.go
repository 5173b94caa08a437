package impl

import (
	"context"
	"testing"
	"time"

	"medsync/config"
	"medsync/internal/domain/entity"
	domainerrors "medsync/internal/domain/errors"
	"medsync/internal/domain/service"
	"medsync/internal/errors"
	"medsync/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestDispatcherWithTimeout(timeout time.Duration, channels ...service.ChannelAdapter) (usecase.DispatchUsecase, *fakeNotificationLogRepo, *fakeAuditPublisher) {
	logRepo := newFakeNotificationLogRepo()
	audit := newFakeAuditPublisher()

	cfg := &config.Config{}
	cfg.Notify.ChannelTimeout = timeout

	d := NewDispatcher(DispatcherParams{
		Channels: channels,
		LogRepo:  logRepo,
		Audit:    audit,
		Config:   cfg,
		Logger:   newTestLogger(),
	})

	return d, logRepo, audit
}

func createTestDispatcher(channels ...service.ChannelAdapter) (usecase.DispatchUsecase, *fakeNotificationLogRepo, *fakeAuditPublisher) {
	return createTestDispatcherWithTimeout(time.Second, channels...)
}

func TestDispatcher_Send_EmergencyFansOutToAllChannels(t *testing.T) {
	push := newFakeChannel(entity.ChannelPush)
	inApp := newFakeChannel(entity.ChannelInApp)
	email := newFakeChannel(entity.ChannelEmail)
	d, logRepo, _ := createTestDispatcher(push, inApp, email)

	result, err := d.Send(context.Background(), entity.NotifyEmergency, entity.PriorityCritical, map[string]any{
		"title": "Emergency",
		"body":  "Fall detected",
	})

	require.NoError(t, err)
	assert.Len(t, result.Outcomes, 3)
	assert.False(t, result.Escalated)
	assert.Equal(t, 1, push.deliveredCount())
	assert.Equal(t, 1, inApp.deliveredCount())
	assert.Equal(t, 1, email.deliveredCount())
	assert.Equal(t, entity.DeliverySent, logRepo.stateOf(result.Message.ID))
}

func TestDispatcher_Send_UnroutedTypeDefaultsToInApp(t *testing.T) {
	push := newFakeChannel(entity.ChannelPush)
	inApp := newFakeChannel(entity.ChannelInApp)
	d, _, _ := createTestDispatcher(push, inApp)

	result, err := d.Send(context.Background(), entity.NotifySystem, entity.PriorityLow, map[string]any{"body": "maintenance tonight"})

	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, entity.ChannelInApp, result.Outcomes[0].Channel)
	assert.Equal(t, 0, push.deliveredCount())
	assert.Equal(t, 1, inApp.deliveredCount())
}

func TestDispatcher_Send_OneChannelFailureDoesNotBlockOthers(t *testing.T) {
	push := newFakeChannel(entity.ChannelPush)
	push.deliverErr = errors.New("fcm unavailable")
	inApp := newFakeChannel(entity.ChannelInApp)
	d, logRepo, audit := createTestDispatcher(push, inApp)

	result, err := d.Send(context.Background(), entity.NotifyDoseReminder, entity.PriorityHigh, map[string]any{"body": "take aspirin"})

	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)
	assert.False(t, result.Outcomes[0].Sent)
	assert.NotEmpty(t, result.Outcomes[0].Error)
	assert.True(t, result.Outcomes[1].Sent)

	// At least one channel got through, so the message is sent and no escalation fires.
	assert.Equal(t, entity.DeliverySent, logRepo.stateOf(result.Message.ID))
	assert.False(t, result.Escalated)
	assert.Empty(t, audit.published())
}

func TestDispatcher_Send_TotalFailureAtHighPriorityEscalates(t *testing.T) {
	push := newFakeChannel(entity.ChannelPush)
	push.deliverErr = errors.New("fcm unavailable")
	inApp := newFakeChannel(entity.ChannelInApp)
	inApp.deliverErr = errors.New("gateway unreachable")
	d, logRepo, audit := createTestDispatcher(push, inApp)

	result, err := d.Send(context.Background(), entity.NotifyMedicationMissed, entity.PriorityHigh, map[string]any{"body": "missed dose"})

	require.NoError(t, err)
	assert.True(t, result.Escalated)
	assert.Equal(t, entity.DeliveryFailed, logRepo.stateOf(result.Message.ID))

	events := audit.published()
	require.Len(t, events, 1)
	assert.Equal(t, "liabilityEscalation", events[0].Kind)
	assert.Equal(t, result.Message.ID.String(), events[0].MessageID)
	assert.Equal(t, "high", events[0].Priority)
	assert.ElementsMatch(t, []string{"push", "inApp"}, events[0].Channels)
}

func TestDispatcher_Send_TotalFailureAtLowPriorityDoesNotEscalate(t *testing.T) {
	inApp := newFakeChannel(entity.ChannelInApp)
	inApp.deliverErr = errors.New("gateway unreachable")
	d, logRepo, audit := createTestDispatcher(inApp)

	result, err := d.Send(context.Background(), entity.NotifySystem, entity.PriorityLow, map[string]any{"body": "tip of the day"})

	require.NoError(t, err)
	assert.False(t, result.Escalated)
	assert.Equal(t, entity.DeliveryFailed, logRepo.stateOf(result.Message.ID))
	assert.Empty(t, audit.published())
}

func TestDispatcher_Send_MissingAdapterCountsAsFailure(t *testing.T) {
	// Only in-app is configured; the emergency route also wants push and email.
	inApp := newFakeChannel(entity.ChannelInApp)
	d, _, audit := createTestDispatcher(inApp)

	result, err := d.Send(context.Background(), entity.NotifyEmergency, entity.PriorityCritical, map[string]any{"body": "fall detected"})

	require.NoError(t, err)
	require.Len(t, result.Outcomes, 3)
	assert.False(t, result.Escalated)
	assert.Empty(t, audit.published())

	sent := 0
	for _, outcome := range result.Outcomes {
		if outcome.Sent {
			sent++
		} else {
			assert.Equal(t, "channel not configured", outcome.Error)
		}
	}
	assert.Equal(t, 1, sent)
}

func TestDispatcher_Send_SlowChannelDoesNotBlockFanOut(t *testing.T) {
	// The stuck channel never returns and never looks at its context, like a
	// socket write into a full TCP buffer.
	stuck := newFakeChannel(entity.ChannelPush)
	stuck.block = make(chan struct{})
	defer close(stuck.block)
	inApp := newFakeChannel(entity.ChannelInApp)
	d, logRepo, _ := createTestDispatcherWithTimeout(20*time.Millisecond, stuck, inApp)

	start := time.Now()
	result, err := d.Send(context.Background(), entity.NotifyDoseReminder, entity.PriorityHigh, map[string]any{"body": "take aspirin"})

	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	require.Len(t, result.Outcomes, 2)
	assert.False(t, result.Outcomes[0].Sent)
	assert.Contains(t, result.Outcomes[0].Error, "did not resolve in time")
	assert.True(t, result.Outcomes[1].Sent)
	assert.Equal(t, 1, inApp.deliveredCount())
	assert.Equal(t, entity.DeliverySent, logRepo.stateOf(result.Message.ID))
}

func TestDispatcher_Acknowledge_OnlySentMessages(t *testing.T) {
	inApp := newFakeChannel(entity.ChannelInApp)
	inApp.ack = true
	d, _, _ := createTestDispatcher(inApp)
	ctx := context.Background()

	result, err := d.Send(ctx, entity.NotifyFamilyUpdate, entity.PriorityMedium, map[string]any{"body": "grandma took her meds"})
	require.NoError(t, err)

	ok, err := d.Acknowledge(ctx, result.Message.ID.String())
	require.NoError(t, err)
	assert.True(t, ok)

	// Already acknowledged; a second receipt is a no-op.
	ok, err = d.Acknowledge(ctx, result.Message.ID.String())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDispatcher_Acknowledge_RequiresAckCapableDelivery(t *testing.T) {
	// Delivered, but only through a channel without read receipts.
	inApp := newFakeChannel(entity.ChannelInApp)
	d, logRepo, _ := createTestDispatcher(inApp)
	ctx := context.Background()

	result, err := d.Send(ctx, entity.NotifyFamilyUpdate, entity.PriorityMedium, map[string]any{"body": "grandma took her meds"})
	require.NoError(t, err)
	assert.Equal(t, entity.DeliverySent, logRepo.stateOf(result.Message.ID))
	assert.False(t, result.Message.AckCapable)

	ok, err := d.Acknowledge(ctx, result.Message.ID.String())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDispatcher_Acknowledge_InvalidID(t *testing.T) {
	d, _, _ := createTestDispatcher()

	ok, err := d.Acknowledge(context.Background(), "not-a-uuid")

	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestDispatcher_History_NewestFirst(t *testing.T) {
	inApp := newFakeChannel(entity.ChannelInApp)
	d, logRepo, _ := createTestDispatcher(inApp)
	ctx := context.Background()

	older := &entity.NotificationMessage{ID: uuid.New(), Timestamp: time.Now().Add(-time.Hour), DeliveryState: entity.DeliverySent}
	newer := &entity.NotificationMessage{ID: uuid.New(), Timestamp: time.Now(), DeliveryState: entity.DeliverySent}
	require.NoError(t, logRepo.Create(ctx, older))
	require.NoError(t, logRepo.Create(ctx, newer))

	messages, err := d.History(ctx, 10, 0)

	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, newer.ID, messages[0].ID)
	assert.Equal(t, older.ID, messages[1].ID)
}
