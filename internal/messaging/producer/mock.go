package producer

import (
	"context"
	"sync"

	"verichain/internal/models"
)

// MockProducer captures published notifications for tests and local runs
// without a broker.
type MockProducer struct {
	mu        sync.Mutex
	published []models.Notification
}

// NewMockProducer creates an empty capture producer.
func NewMockProducer() *MockProducer {
	return &MockProducer{}
}

func (m *MockProducer) Publish(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, *n)
	return nil
}

func (m *MockProducer) Close() error { return nil }

// Published returns a snapshot of the captured notifications.
func (m *MockProducer) Published() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Notification, len(m.published))
	copy(out, m.published)
	return out
}

var _ Producer = (*MockProducer)(nil)
