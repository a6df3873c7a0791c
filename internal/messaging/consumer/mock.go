package consumer

import (
	"context"
	"errors"
	"log"

	"verichain/internal/models"
)

// MockConsumer serves notifications from an in-memory channel, for tests and
// broker-less development runs.
type MockConsumer struct {
	logger   *log.Logger
	messages chan *models.Notification
}

// NewMockConsumer creates a MockConsumer with the given buffer size.
func NewMockConsumer(logger *log.Logger, buffer int) *MockConsumer {
	if buffer <= 0 {
		buffer = 16
	}
	return &MockConsumer{
		logger:   logger,
		messages: make(chan *models.Notification, buffer),
	}
}

// Enqueue adds a notification for consumption.
func (m *MockConsumer) Enqueue(n *models.Notification) {
	m.messages <- n
}

// Consume reads notifications from the channel. A nack re-queues the message.
func (m *MockConsumer) Consume(ctx context.Context) (n *models.Notification, ack func(success bool), err error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case msg := <-m.messages:
		if msg == nil {
			return nil, nil, errors.New("message channel closed")
		}
		ackCallback := func(success bool) {
			if !success {
				select {
				case m.messages <- msg:
				default:
					m.logger.Printf("Warning: failed to re-queue notification %s (channel full?)", msg.NotificationID)
				}
			}
		}
		return msg, ackCallback, nil
	}
}

// Close closes the message channel.
func (m *MockConsumer) Close() error {
	close(m.messages)
	return nil
}

var _ Consumer = (*MockConsumer)(nil)
