package producer

import (
	"context"

	"verichain/internal/models"
)

// Producer defines the interface for the notification message sink.
type Producer interface {
	// Publish sends a single notification to the configured topic.
	Publish(ctx context.Context, n *models.Notification) error

	// Close closes the producer connection.
	Close() error
}
