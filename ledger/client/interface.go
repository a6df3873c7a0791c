package client

import (
	"context"

	"verichain/ledger/types"
)

// LedgerClient is one open gateway session against the ledger network.
//
// SubmitVerification is an ordered, consensus-committed write: it returns
// success only after the network has durably ordered the transaction.
// GetVerification is a local evaluation with no consensus round.
//
// Sessions are not pooled: callers obtain one per request/response cycle via a
// Connector and must Close it on every exit path. Ledger sessions are a
// bounded resource, so a leaked session is a correctness bug.
type LedgerClient interface {
	SubmitVerification(ctx context.Context, sub types.Submission) (*types.Proof, error)
	GetVerification(ctx context.Context, docID string) (*types.VerificationRecord, error)
	Close() error
}

// Connector opens a fresh gateway session. Connect fails with a connection
// error when the named identity is missing from the wallet or the network
// profile is malformed or unreachable.
type Connector interface {
	Connect(ctx context.Context) (LedgerClient, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context) (LedgerClient, error)

func (f ConnectorFunc) Connect(ctx context.Context) (LedgerClient, error) { return f(ctx) }
