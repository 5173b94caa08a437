package usecase

import "medsync/internal/domain/entity"

// ConnectivityMonitor tracks the device's view of remote reachability and
// notifies subscribers on state transitions
type ConnectivityMonitor interface {
	// State returns the current connectivity state
	State() entity.ConnectivityState

	// Report records an observed connectivity state. Handlers fire only when
	// the state actually changes.
	Report(state entity.ConnectivityState)

	// OnStateChange registers a handler invoked on every transition.
	// The returned function unsubscribes the handler.
	OnStateChange(handler func(state entity.ConnectivityState)) func()
}
