package impl

import (
	"log/slog"
	"sync"

	"medsync/internal/domain/entity"
	"medsync/internal/usecase"
)

type connectivityMonitor struct {
	logger *slog.Logger

	mu       sync.Mutex
	state    entity.ConnectivityState
	nextID   int
	handlers map[int]func(state entity.ConnectivityState)
}

// NewConnectivityMonitor creates a monitor starting in the offline state.
// The probe worker reports the first real observation shortly after startup.
func NewConnectivityMonitor(logger *slog.Logger) usecase.ConnectivityMonitor {
	return &connectivityMonitor{
		logger:   logger,
		state:    entity.ConnectivityOffline,
		handlers: make(map[int]func(state entity.ConnectivityState)),
	}
}

// State returns the current connectivity state
func (m *connectivityMonitor) State() entity.ConnectivityState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Report records an observed connectivity state. Handlers run synchronously
// and only on an actual transition, so a flapping probe cannot stack drains.
func (m *connectivityMonitor) Report(state entity.ConnectivityState) {
	m.mu.Lock()
	if state == m.state {
		m.mu.Unlock()

		return
	}

	m.state = state
	handlers := make([]func(state entity.ConnectivityState), 0, len(m.handlers))
	for _, h := range m.handlers {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	m.logger.Info("Connectivity state changed",
		slog.String("state", string(state)),
	)

	for _, h := range handlers {
		h(state)
	}
}

// OnStateChange registers a transition handler and returns its unsubscribe function
func (m *connectivityMonitor) OnStateChange(handler func(state entity.ConnectivityState)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.handlers[id] = handler

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		delete(m.handlers, id)
	}
}
