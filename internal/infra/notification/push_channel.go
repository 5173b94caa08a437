// Package notification contains the concrete delivery channel adapters.
package notification

import (
	"context"
	"fmt"

	"medsync/internal/domain/entity"
	"medsync/internal/domain/service"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// pushChannel delivers through Firebase Cloud Messaging. Fire-and-forget:
// FCM acceptance moves the message to sent, there is no acknowledgement path.
type pushChannel struct {
	client *messaging.Client
	token  string
}

// NewPushChannel creates the Firebase push channel adapter.
func NewPushChannel(ctx context.Context, credentialsPath, deviceToken string) (service.ChannelAdapter, error) {
	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &pushChannel{
		client: client,
		token:  deviceToken,
	}, nil
}

// Name identifies the channel in routing tables and dispatch results.
func (ch *pushChannel) Name() entity.ChannelName {
	return entity.ChannelPush
}

// SupportsAck reports false: push delivery stops at sent.
func (ch *pushChannel) SupportsAck() bool {
	return false
}

// Deliver sends one notification to the registered device token.
func (ch *pushChannel) Deliver(ctx context.Context, message *entity.NotificationMessage) error {
	data := map[string]string{
		"message_id": message.ID.String(),
		"type":       string(message.Type),
		"priority":   message.Priority.String(),
	}

	msg := &messaging.Message{
		Token: ch.token,
		Notification: &messaging.Notification{
			Title: message.Title(),
			Body:  message.Body(),
		},
		Data: data,
	}

	if _, err := ch.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}

	return nil
}
