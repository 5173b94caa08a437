// Package service defines interfaces for external collaborators: delivery
// channels, the remote persistence API, the audit sink, and credentials.
package service

import (
	"context"

	"medsync/internal/domain/entity"
)

// ChannelAdapter is the single capability every delivery channel implements.
// The dispatcher holds a set of adapters and treats them polymorphically;
// adding a channel means implementing this and registering it in the
// type-to-channel routing table.
type ChannelAdapter interface {
	// Name identifies the channel in routing tables and dispatch results.
	Name() entity.ChannelName

	// Deliver sends one message through this channel. A nil return means the
	// channel accepted the message (sent); it does not imply acknowledgement.
	Deliver(ctx context.Context, message *entity.NotificationMessage) error

	// SupportsAck reports whether this channel can confirm receipt by the
	// user/client. Fire-and-forget channels stop at sent.
	SupportsAck() bool
}
