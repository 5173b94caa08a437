package impl

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"medsync/internal/domain/entity"
	"medsync/internal/domain/service"

	"github.com/google/uuid"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// fakeChangeQueueRepo is an in-memory ChangeQueueRepository for tests.
type fakeChangeQueueRepo struct {
	mu      sync.Mutex
	changes []*entity.PendingChange

	appendErr error
	findErr   error
	markErr   error
}

func newFakeChangeQueueRepo() *fakeChangeQueueRepo {
	return &fakeChangeQueueRepo{}
}

func (r *fakeChangeQueueRepo) Append(_ context.Context, change *entity.PendingChange) error {
	if r.appendErr != nil {
		return r.appendErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *change
	r.changes = append(r.changes, &copied)

	return nil
}

func (r *fakeChangeQueueRepo) FindPending(_ context.Context, entityType *entity.EntityType) ([]*entity.PendingChange, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.PendingChange
	for _, c := range r.changes {
		if c.Synced {
			continue
		}
		if entityType != nil && c.EntityType != *entityType {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *fakeChangeQueueRepo) MarkSynced(_ context.Context, id uuid.UUID) (bool, error) {
	if r.markErr != nil {
		return false, r.markErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.changes {
		if c.ID == id {
			if c.Synced {
				return false, nil
			}
			c.Synced = true

			return true, nil
		}
	}

	return false, nil
}

func (r *fakeChangeQueueRepo) CountPending(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, c := range r.changes {
		if !c.Synced {
			n++
		}
	}

	return n, nil
}

func (r *fakeChangeQueueRepo) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.changes = nil

	return nil
}

// fakeNotificationLogRepo is an in-memory NotificationLogRepository for tests.
type fakeNotificationLogRepo struct {
	mu       sync.Mutex
	messages []*entity.NotificationMessage

	createErr error
}

func newFakeNotificationLogRepo() *fakeNotificationLogRepo {
	return &fakeNotificationLogRepo{}
}

func (r *fakeNotificationLogRepo) Create(_ context.Context, message *entity.NotificationMessage) error {
	if r.createErr != nil {
		return r.createErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *message
	r.messages = append(r.messages, &copied)

	return nil
}

func (r *fakeNotificationLogRepo) UpdateState(_ context.Context, id uuid.UUID, state entity.DeliveryState, ackCapable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.messages {
		if m.ID == id {
			m.DeliveryState = state
			m.AckCapable = ackCapable

			return nil
		}
	}

	return nil
}

func (r *fakeNotificationLogRepo) MarkAcknowledged(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.messages {
		if m.ID == id {
			if m.DeliveryState != entity.DeliverySent || !m.AckCapable {
				return false, nil
			}
			m.DeliveryState = entity.DeliveryAcknowledged

			return true, nil
		}
	}

	return false, nil
}

func (r *fakeNotificationLogRepo) FindRecent(_ context.Context, limit, offset int) ([]*entity.NotificationMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ordered := make([]*entity.NotificationMessage, len(r.messages))
	copy(ordered, r.messages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.After(ordered[j].Timestamp)
	})

	if offset >= len(ordered) {
		return nil, nil
	}
	ordered = ordered[offset:]
	if limit < len(ordered) {
		ordered = ordered[:limit]
	}

	out := make([]*entity.NotificationMessage, 0, len(ordered))
	for _, m := range ordered {
		copied := *m
		out = append(out, &copied)
	}

	return out, nil
}

func (r *fakeNotificationLogRepo) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = nil

	return nil
}

func (r *fakeNotificationLogRepo) stateOf(id uuid.UUID) entity.DeliveryState {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.messages {
		if m.ID == id {
			return m.DeliveryState
		}
	}

	return ""
}

// fakeRemoteStore records the order of remote writes and fails the change IDs
// listed in failWith.
type fakeRemoteStore struct {
	mu       sync.Mutex
	calls    []uuid.UUID
	failWith map[uuid.UUID]error
	healthy  bool
}

func newFakeRemoteStore() *fakeRemoteStore {
	return &fakeRemoteStore{
		failWith: make(map[uuid.UUID]error),
		healthy:  true,
	}
}

func (r *fakeRemoteStore) push(change *entity.PendingChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, change.ID)
	if err, ok := r.failWith[change.ID]; ok {
		return err
	}

	return nil
}

func (r *fakeRemoteStore) UpsertMedication(_ context.Context, change *entity.PendingChange) error {
	return r.push(change)
}

func (r *fakeRemoteStore) UpsertSchedule(_ context.Context, change *entity.PendingChange) error {
	return r.push(change)
}

func (r *fakeRemoteStore) RecordAdherenceEvent(_ context.Context, change *entity.PendingChange) error {
	return r.push(change)
}

func (r *fakeRemoteStore) RecordEmergencyEvent(_ context.Context, change *entity.PendingChange) error {
	return r.push(change)
}

func (r *fakeRemoteStore) Healthy(_ context.Context) bool {
	return r.healthy
}

func (r *fakeRemoteStore) callOrder() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]uuid.UUID, len(r.calls))
	copy(out, r.calls)

	return out
}

// fakeAuditPublisher records published liability events.
type fakeAuditPublisher struct {
	mu     sync.Mutex
	events []*service.LiabilityEvent
}

func newFakeAuditPublisher() *fakeAuditPublisher {
	return &fakeAuditPublisher{}
}

func (p *fakeAuditPublisher) PublishLiabilityEvent(_ context.Context, event *service.LiabilityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *fakeAuditPublisher) Close() error {
	return nil
}

func (p *fakeAuditPublisher) published() []*service.LiabilityEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*service.LiabilityEvent, len(p.events))
	copy(out, p.events)

	return out
}

// fakeChannel is a scriptable ChannelAdapter. A non-nil block makes Deliver
// hang until the channel is closed, ignoring its context the way a stalled
// socket write would.
type fakeChannel struct {
	name       entity.ChannelName
	ack        bool
	deliverErr error
	block      chan struct{}

	mu        sync.Mutex
	delivered []*entity.NotificationMessage
}

func newFakeChannel(name entity.ChannelName) *fakeChannel {
	return &fakeChannel{name: name}
}

func (ch *fakeChannel) Name() entity.ChannelName {
	return ch.name
}

func (ch *fakeChannel) SupportsAck() bool {
	return ch.ack
}

func (ch *fakeChannel) Deliver(_ context.Context, message *entity.NotificationMessage) error {
	if ch.block != nil {
		<-ch.block
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.deliverErr != nil {
		return ch.deliverErr
	}
	ch.delivered = append(ch.delivered, message)

	return nil
}

func (ch *fakeChannel) deliveredCount() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	return len(ch.delivered)
}
