// Package delivery defines the inbound surfaces of the service.
package delivery

import "context"

// Delivery is a long-running inbound surface (HTTP API, sync worker).
// Serve blocks until the delivery stops.
type Delivery interface {
	Serve(ctx context.Context) error
}
