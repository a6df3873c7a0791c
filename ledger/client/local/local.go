// Package local provides an in-process ledger backend running the
// document-verification contract against an in-memory world state. It serves
// development setups and tests where no chain network is reachable; the
// session-per-invocation contract is identical to the production client.
package local

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"verichain/ledger/contract"
	"verichain/ledger/types"
)

// Backend owns the shared world state that individual sessions run against.
type Backend struct {
	state    *contract.MemoryState
	contract *contract.Contract
	logger   *log.Logger

	height uint64
	mu     sync.Mutex
}

// NewBackend creates an empty local ledger backend.
func NewBackend(logger *log.Logger) *Backend {
	state := contract.NewMemoryState()
	return &Backend{
		state:    state,
		contract: contract.New(state),
		logger:   logger,
	}
}

// Connect opens a session. The backend outlives its sessions, so state
// written through one session is visible to the next.
func (b *Backend) Connect(_ context.Context) (*Session, error) {
	return &Session{backend: b}, nil
}

// Events exposes the emitted contract events for audit assertions.
func (b *Backend) Events() []contract.Event { return b.state.Events() }

// Session is one open local gateway session.
type Session struct {
	backend *Backend
	closed  bool
}

func (s *Session) SubmitVerification(ctx context.Context, sub types.Submission) (*types.Proof, error) {
	record, err := s.backend.contract.VerifyDocument(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.backend.mu.Lock()
	s.backend.height++
	height := s.backend.height
	s.backend.mu.Unlock()

	return &types.Proof{
		TransactionID: uuid.NewString(),
		BlockHeight:   height,
		Timestamp:     record.Timestamp,
	}, nil
}

func (s *Session) GetVerification(ctx context.Context, docID string) (*types.VerificationRecord, error) {
	return s.backend.contract.GetDocumentStatus(ctx, docID)
}

func (s *Session) Close() error {
	s.closed = true
	return nil
}
