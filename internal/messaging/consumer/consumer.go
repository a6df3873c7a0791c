package consumer

import (
	"context"

	"verichain/internal/models"
)

// Consumer defines the interface for notification consumers.
type Consumer interface {
	// Consume blocks until a notification is received or the context is
	// cancelled. It returns the notification, an acknowledgement callback,
	// and any error that occurred. ack(true) marks the message processed;
	// ack(false) leaves it for redelivery.
	Consume(ctx context.Context) (n *models.Notification, ack func(success bool), err error)

	// Close gracefully shuts down the consumer connection.
	Close() error
}
