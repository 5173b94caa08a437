package impl

import (
	"context"
	"log/slog"
	"time"

	"medsync/config"
	reqctx "medsync/internal/delivery/context"
	"medsync/internal/domain/entity"
	domainerrors "medsync/internal/domain/errors"
	"medsync/internal/domain/repository"
	"medsync/internal/domain/service"
	"medsync/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const defaultHistoryLimit = 50

// channelRoutes maps notification types to the channels they fan out to.
// Types not listed fall back to in-app only.
//
//nolint:gochecknoglobals
var channelRoutes = map[entity.NotificationType][]entity.ChannelName{
	entity.NotifyEmergency:        {entity.ChannelPush, entity.ChannelInApp, entity.ChannelEmail},
	entity.NotifyEmergencyUpdate:  {entity.ChannelPush, entity.ChannelInApp, entity.ChannelEmail},
	entity.NotifyMedicationMissed: {entity.ChannelPush, entity.ChannelInApp},
	entity.NotifyDrugInteraction:  {entity.ChannelPush, entity.ChannelInApp},
	entity.NotifyDoseReminder:     {entity.ChannelPush, entity.ChannelInApp},
	entity.NotifyMedicationDue:    {entity.ChannelPush, entity.ChannelInApp},
}

// DispatcherParams holds dependencies for the dispatcher, injected by Fx
type DispatcherParams struct {
	fx.In

	Channels []service.ChannelAdapter `group:"channels"`
	LogRepo  repository.NotificationLogRepository
	Audit    service.AuditPublisher
	Config   *config.Config
	Logger   *slog.Logger
}

type dispatcher struct {
	channels       map[entity.ChannelName]service.ChannelAdapter
	logRepo        repository.NotificationLogRepository
	audit          service.AuditPublisher
	channelTimeout time.Duration
	logger         *slog.Logger
}

// NewDispatcher creates a new notification dispatcher instance
func NewDispatcher(params DispatcherParams) usecase.DispatchUsecase {
	channels := make(map[entity.ChannelName]service.ChannelAdapter, len(params.Channels))
	for _, ch := range params.Channels {
		if ch == nil {
			continue
		}
		channels[ch.Name()] = ch
	}

	timeout := params.Config.Notify.ChannelTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &dispatcher{
		channels:       channels,
		logRepo:        params.LogRepo,
		audit:          params.Audit,
		channelTimeout: timeout,
		logger:         params.Logger,
	}
}

// Send routes one notification to its channels and records the outcome.
// Channels fail independently; one broken adapter never blocks the others.
func (s *dispatcher) Send(ctx context.Context, notificationType entity.NotificationType, priority entity.Priority, payload map[string]any) (*usecase.DispatchResult, error) {
	message := &entity.NotificationMessage{
		ID:            uuid.New(),
		Type:          notificationType,
		Priority:      priority,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
		DeliveryState: entity.DeliveryPending,
	}

	if err := s.logRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	routes, ok := channelRoutes[notificationType]
	if !ok {
		routes = []entity.ChannelName{entity.ChannelInApp}
	}

	result := &usecase.DispatchResult{Message: message}
	anySent := false
	ackCapable := false

	for _, name := range routes {
		outcome := s.deliverOne(ctx, name, message)
		if outcome.Sent {
			anySent = true
			if outcome.AckCapable {
				ackCapable = true
			}
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	state := entity.DeliverySent
	if !anySent {
		state = entity.DeliveryFailed
	}
	if err := s.logRepo.UpdateState(ctx, message.ID, state, ackCapable); err != nil {
		return nil, err
	}
	message.DeliveryState = state
	message.AckCapable = ackCapable

	if !anySent && priority.Escalates() {
		s.publishEscalation(ctx, message, routes)
		result.Escalated = true
	}

	return result, nil
}

// deliverOne attempts delivery on a single channel with its own timeout. The
// adapter call runs in a goroutine so an adapter that ignores its context, a
// stalled socket write for instance, still resolves within the budget and the
// remaining channels keep going.
func (s *dispatcher) deliverOne(ctx context.Context, name entity.ChannelName, message *entity.NotificationMessage) usecase.ChannelOutcome {
	logger := reqctx.GetLoggerOrDefault(ctx, s.logger)
	outcome := usecase.ChannelOutcome{Channel: name}

	adapter, ok := s.channels[name]
	if !ok {
		outcome.Error = "channel not configured"
		logger.Warn("Routed channel has no adapter",
			slog.String("channel", string(name)),
			slog.String("message_id", message.ID.String()),
		)

		return outcome
	}
	outcome.AckCapable = adapter.SupportsAck()

	callCtx, cancel := context.WithTimeout(ctx, s.channelTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- adapter.Deliver(callCtx, message)
	}()

	var err error
	select {
	case <-callCtx.Done():
		err = errors.Wrap(callCtx.Err(), "channel did not resolve in time")
	case err = <-done:
	}

	if err != nil {
		wrapped := errors.Wrap(domainerrors.ErrDeliveryFailed, err.Error())
		outcome.Error = wrapped.Error()
		logger.Warn("Channel delivery failed",
			slog.String("channel", string(name)),
			slog.String("message_id", message.ID.String()),
			slog.Any("error", err),
		)

		return outcome
	}

	outcome.Sent = true
	logger.Debug("Channel delivery succeeded",
		slog.String("channel", string(name)),
		slog.String("message_id", message.ID.String()),
	)

	return outcome
}

// publishEscalation records a total delivery failure of a high or critical
// message in the audit sink. Exactly one event per message.
func (s *dispatcher) publishEscalation(ctx context.Context, message *entity.NotificationMessage, routes []entity.ChannelName) {
	channels := make([]string, 0, len(routes))
	for _, name := range routes {
		channels = append(channels, string(name))
	}

	event := &service.LiabilityEvent{
		RequestID:  reqctx.GetRequestIDFromContext(ctx),
		EventID:    uuid.New().String(),
		Kind:       service.LiabilityKindEscalation,
		MessageID:  message.ID.String(),
		Type:       string(message.Type),
		Priority:   message.Priority.String(),
		Reason:     "all delivery channels failed",
		Channels:   channels,
		Payload:    message.Payload,
		OccurredAt: time.Now().UTC(),
	}

	if err := s.audit.PublishLiabilityEvent(ctx, event); err != nil {
		reqctx.GetLoggerOrDefault(ctx, s.logger).Error("Failed to publish escalation audit event",
			slog.String("message_id", message.ID.String()),
			slog.Any("error", err),
		)
	}
}

// History retrieves recent notification log entries, newest-first
func (s *dispatcher) History(ctx context.Context, limit, offset int) ([]*entity.NotificationMessage, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	return s.logRepo.FindRecent(ctx, limit, offset)
}

// Acknowledge marks a sent in-app notification as read. Only messages that an
// ack-capable channel accepted can be acknowledged.
func (s *dispatcher) Acknowledge(ctx context.Context, id string) (bool, error) {
	messageID, err := uuid.Parse(id)
	if err != nil {
		return false, domainerrors.ErrValidationFailed.WithDetails("message id must be a UUID")
	}

	return s.logRepo.MarkAcknowledged(ctx, messageID)
}
