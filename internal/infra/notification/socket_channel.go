package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"medsync/config"
	"medsync/internal/domain/entity"
	"medsync/internal/domain/service"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// socketState is the explicit connection state machine of the gateway client:
// connecting -> connected, or connecting -> backoff(attempt n) -> connecting,
// ending in failed once the attempt budget is spent.
type socketState int

const (
	stateDisconnected socketState = iota
	stateConnecting
	stateConnected
	stateBackoff
	stateFailed
)

func (s socketState) String() string {
	switch s {
	case stateDisconnected:
		return "disconnected"
	case stateConnecting:
		return "connecting"
	case stateConnected:
		return "connected"
	case stateBackoff:
		return "backoff"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// socketConn is the subset of *websocket.Conn the channel needs; injectable in tests.
type socketConn interface {
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// dialFunc establishes a gateway connection.
type dialFunc func(ctx context.Context, url string) (socketConn, error)

// socketChannel emits in-app notifications to the realtime gateway over a
// websocket. The connection survives across deliveries; a broken pipe moves
// the machine back to connecting with exponential backoff.
type socketChannel struct {
	url         string
	maxRetries  int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	logger      *slog.Logger
	dial        dialFunc

	mu      sync.Mutex
	state   socketState
	attempt int
	conn    socketConn
}

// NewSocketChannel creates the in-app websocket channel adapter.
func NewSocketChannel(cfg *config.SocketConfig, logger *slog.Logger) (service.ChannelAdapter, error) {
	if cfg.GatewayURL == "" {
		return nil, errors.New("socket gateway URL must be provided")
	}

	ch := &socketChannel{
		url:         cfg.GatewayURL,
		maxRetries:  cfg.MaxRetries,
		baseBackoff: cfg.BaseBackoff,
		maxBackoff:  cfg.MaxBackoff,
		logger:      logger,
		dial:        gorillaDial,
		state:       stateDisconnected,
	}
	if ch.maxRetries <= 0 {
		ch.maxRetries = 5
	}
	if ch.baseBackoff <= 0 {
		ch.baseBackoff = 500 * time.Millisecond
	}
	if ch.maxBackoff <= 0 {
		ch.maxBackoff = 30 * time.Second
	}

	return ch, nil
}

func gorillaDial(ctx context.Context, url string) (socketConn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial gateway")
	}

	return conn, nil
}

// Name identifies the channel in routing tables and dispatch results.
func (ch *socketChannel) Name() entity.ChannelName {
	return entity.ChannelInApp
}

// SupportsAck reports true: in-app clients confirm with a read receipt.
func (ch *socketChannel) SupportsAck() bool {
	return true
}

// Deliver emits one message to the gateway, connecting first if needed. The
// write deadline follows the caller's context so a stalled connection fails
// the delivery instead of hanging it.
func (ch *socketChannel) Deliver(ctx context.Context, message *entity.NotificationMessage) error {
	conn, err := ch.ensureConnected(ctx)
	if err != nil {
		return err
	}

	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		ch.markBroken(conn)

		return errors.Wrap(err, "failed to set gateway write deadline")
	}

	if err := conn.WriteJSON(message); err != nil {
		ch.markBroken(conn)

		return errors.Wrap(err, "failed to emit message to gateway")
	}

	return nil
}

// Close tears down the gateway connection.
func (ch *socketChannel) Close() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.state = stateDisconnected
	if ch.conn != nil {
		err := ch.conn.Close()
		ch.conn = nil

		return err
	}

	return nil
}

// ensureConnected runs the reconnect machine until connected, the attempt
// budget is spent, or the context is cancelled.
func (ch *socketChannel) ensureConnected(ctx context.Context) (socketConn, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.state == stateConnected && ch.conn != nil {
		return ch.conn, nil
	}

	for ch.attempt = 0; ch.attempt < ch.maxRetries; ch.attempt++ {
		if ch.attempt > 0 {
			ch.state = stateBackoff
			delay := ch.backoffDelay(ch.attempt)
			ch.logger.Debug("Gateway reconnect backing off",
				slog.Int("attempt", ch.attempt),
				slog.Duration("delay", delay),
			)

			select {
			case <-ctx.Done():
				ch.state = stateDisconnected

				return nil, errors.Wrap(ctx.Err(), "gateway connect cancelled")
			case <-time.After(delay):
			}
		}

		ch.state = stateConnecting
		conn, err := ch.dial(ctx, ch.url)
		if err == nil {
			ch.state = stateConnected
			ch.attempt = 0
			ch.conn = conn

			return conn, nil
		}

		ch.logger.Warn("Gateway connect attempt failed",
			slog.Int("attempt", ch.attempt+1),
			slog.Any("error", err),
		)
	}

	ch.state = stateFailed

	return nil, errors.Errorf("gateway unreachable after %d attempts", ch.maxRetries)
}

// backoffDelay doubles the base delay per attempt, capped at maxBackoff.
func (ch *socketChannel) backoffDelay(attempt int) time.Duration {
	delay := ch.baseBackoff << (attempt - 1)
	if delay > ch.maxBackoff || delay <= 0 {
		return ch.maxBackoff
	}

	return delay
}

// markBroken drops a dead connection so the next delivery reconnects.
func (ch *socketChannel) markBroken(conn socketConn) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.conn == conn {
		_ = conn.Close()
		ch.conn = nil
		ch.state = stateDisconnected
	}
}
