package notification

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"medsync/config"
	"medsync/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeConn struct {
	writeErr  error
	written   []any
	deadlines []time.Time
	closed    bool
}

func (c *fakeConn) WriteJSON(v any) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.written = append(c.written, v)

	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error {
	c.deadlines = append(c.deadlines, t)

	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true

	return nil
}

func newTestSocketChannel(t *testing.T, dial dialFunc) *socketChannel {
	t.Helper()

	ch, err := NewSocketChannel(&config.SocketConfig{
		GatewayURL:  "ws://localhost:9000/notifications",
		MaxRetries:  3,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  4 * time.Millisecond,
	}, newTestLogger())
	require.NoError(t, err)

	sc := ch.(*socketChannel)
	sc.dial = dial

	return sc
}

func testMessage() *entity.NotificationMessage {
	return &entity.NotificationMessage{
		ID:       uuid.New(),
		Type:     entity.NotifyDoseReminder,
		Priority: entity.PriorityHigh,
		Payload:  map[string]any{"body": "take aspirin"},
	}
}

func TestSocketChannel_Deliver_ConnectsOnceAndReuses(t *testing.T) {
	conn := &fakeConn{}
	dials := 0
	ch := newTestSocketChannel(t, func(ctx context.Context, url string) (socketConn, error) {
		dials++

		return conn, nil
	})

	require.NoError(t, ch.Deliver(context.Background(), testMessage()))
	require.NoError(t, ch.Deliver(context.Background(), testMessage()))

	assert.Equal(t, 1, dials)
	assert.Len(t, conn.written, 2)
	assert.Equal(t, stateConnected, ch.state)
}

func TestSocketChannel_Deliver_RetriesWithBackoffThenConnects(t *testing.T) {
	conn := &fakeConn{}
	dials := 0
	ch := newTestSocketChannel(t, func(ctx context.Context, url string) (socketConn, error) {
		dials++
		if dials < 3 {
			return nil, errors.New("connection refused")
		}

		return conn, nil
	})

	require.NoError(t, ch.Deliver(context.Background(), testMessage()))

	assert.Equal(t, 3, dials)
	assert.Equal(t, stateConnected, ch.state)
}

func TestSocketChannel_Deliver_FailsAfterAttemptBudget(t *testing.T) {
	dials := 0
	ch := newTestSocketChannel(t, func(ctx context.Context, url string) (socketConn, error) {
		dials++

		return nil, errors.New("connection refused")
	})

	err := ch.Deliver(context.Background(), testMessage())

	require.Error(t, err)
	assert.Equal(t, 3, dials)
	assert.Equal(t, stateFailed, ch.state)
}

func TestSocketChannel_Deliver_WriteDeadlineFollowsContext(t *testing.T) {
	conn := &fakeConn{}
	ch := newTestSocketChannel(t, func(ctx context.Context, url string) (socketConn, error) {
		return conn, nil
	})

	deadline := time.Now().Add(time.Minute)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	require.NoError(t, ch.Deliver(ctx, testMessage()))

	require.Len(t, conn.deadlines, 1)
	assert.True(t, conn.deadlines[0].Equal(deadline))

	// No deadline on the context clears the write deadline.
	require.NoError(t, ch.Deliver(context.Background(), testMessage()))
	require.Len(t, conn.deadlines, 2)
	assert.True(t, conn.deadlines[1].IsZero())
}

func TestSocketChannel_Deliver_BrokenPipeReconnectsNextDelivery(t *testing.T) {
	broken := &fakeConn{writeErr: errors.New("broken pipe")}
	fresh := &fakeConn{}
	dials := 0
	ch := newTestSocketChannel(t, func(ctx context.Context, url string) (socketConn, error) {
		dials++
		if dials == 1 {
			return broken, nil
		}

		return fresh, nil
	})

	err := ch.Deliver(context.Background(), testMessage())
	require.Error(t, err)
	assert.True(t, broken.closed)
	assert.Equal(t, stateDisconnected, ch.state)

	require.NoError(t, ch.Deliver(context.Background(), testMessage()))
	assert.Equal(t, 2, dials)
	assert.Len(t, fresh.written, 1)
}

func TestSocketChannel_Deliver_CancelledContextStopsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := newTestSocketChannel(t, func(ctx context.Context, url string) (socketConn, error) {
		cancel()

		return nil, errors.New("connection refused")
	})

	err := ch.Deliver(ctx, testMessage())

	require.Error(t, err)
	assert.Equal(t, stateDisconnected, ch.state)
}

func TestSocketChannel_Close(t *testing.T) {
	conn := &fakeConn{}
	ch := newTestSocketChannel(t, func(ctx context.Context, url string) (socketConn, error) {
		return conn, nil
	})

	require.NoError(t, ch.Deliver(context.Background(), testMessage()))
	require.NoError(t, ch.Close())

	assert.True(t, conn.closed)
	assert.Equal(t, stateDisconnected, ch.state)
}

func TestSocketChannel_SupportsAck(t *testing.T) {
	ch := newTestSocketChannel(t, func(ctx context.Context, url string) (socketConn, error) {
		return &fakeConn{}, nil
	})

	assert.True(t, ch.SupportsAck())
	assert.Equal(t, entity.ChannelInApp, ch.Name())
}
