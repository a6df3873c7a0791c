package contract

import (
	"context"
	"sync"
)

// Event is one emitted contract event.
type Event struct {
	Topic   string
	Payload []byte
}

// MemoryState is an in-process world state. It backs the local ledger client
// and the contract tests. Safe for concurrent use.
type MemoryState struct {
	mu     sync.RWMutex
	kv     map[string][]byte
	events []Event
}

// NewMemoryState creates an empty world state.
func NewMemoryState() *MemoryState {
	return &MemoryState{kv: make(map[string][]byte)}
}

func (s *MemoryState) GetState(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.kv[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemoryState) PutState(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	s.kv[key] = stored
	return nil
}

func (s *MemoryState) SetEvent(_ context.Context, topic string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(payload))
	copy(stored, payload)
	s.events = append(s.events, Event{Topic: topic, Payload: stored})
	return nil
}

// Events returns a snapshot of the emitted events, in emission order.
func (s *MemoryState) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

var _ StateStore = (*MemoryState)(nil)
