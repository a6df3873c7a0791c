package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"verichain/internal/errs"
	"verichain/ledger/types"
)

// StateStore is the key-value world state the contract runs against. The
// production chain provides its own state; the local backend supplies an
// in-process implementation for development and tests.
type StateStore interface {
	GetState(ctx context.Context, key string) ([]byte, error)
	PutState(ctx context.Context, key string, value []byte) error
	// SetEvent records an event emitted by the executing transaction.
	SetEvent(ctx context.Context, topic string, payload []byte) error
}

// Contract holds the document-verification transaction logic. It records the
// single authoritative fact "this document hash was verified by this actor at
// this time", keyed by document id.
type Contract struct {
	state StateStore
}

// New creates a Contract bound to a world state.
func New(state StateStore) *Contract {
	return &Contract{state: state}
}

// VerifyDocument writes the verification record for docID and emits a
// DocumentVerified event carrying the full record.
//
// The timestamp arrives as a string and must parse to epoch milliseconds.
// A submission whose timestamp is older than the stored record's is rejected,
// keeping the audit ordering per document non-decreasing; an equal or newer
// timestamp overwrites the prior record.
func (c *Contract) VerifyDocument(ctx context.Context, sub types.Submission) (*types.VerificationRecord, error) {
	if sub.DocID == "" || sub.DocHash == "" || sub.VerifiedBy == "" {
		return nil, fmt.Errorf("%w: docId, docHash and verifiedBy are required", errs.ErrLedgerRejection)
	}
	ts, err := strconv.ParseInt(sub.Timestamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp %q is not epoch millis", errs.ErrLedgerRejection, sub.Timestamp)
	}

	existing, err := c.state.GetState(ctx, sub.DocID)
	if err != nil {
		return nil, fmt.Errorf("state read for %s failed: %w", sub.DocID, err)
	}
	if len(existing) > 0 {
		var prior types.VerificationRecord
		if err := json.Unmarshal(existing, &prior); err == nil && ts < prior.Timestamp {
			return nil, fmt.Errorf("%w: timestamp %d predates recorded %d for %s",
				errs.ErrLedgerRejection, ts, prior.Timestamp, sub.DocID)
		}
	}

	record := &types.VerificationRecord{
		DocID:      sub.DocID,
		OwnerID:    sub.OwnerID,
		DocHash:    sub.DocHash,
		VerifiedBy: sub.VerifiedBy,
		Timestamp:  ts,
		Comments:   sub.Comments,
		Status:     types.StatusVerified,
		PayloadB64: sub.PayloadB64,
	}
	recordBytes, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verification record: %w", err)
	}
	if err := c.state.PutState(ctx, sub.DocID, recordBytes); err != nil {
		return nil, fmt.Errorf("state write for %s failed: %w", sub.DocID, err)
	}
	if err := c.state.SetEvent(ctx, types.EventDocumentVerified, recordBytes); err != nil {
		return nil, fmt.Errorf("event emission for %s failed: %w", sub.DocID, err)
	}
	return record, nil
}

// GetDocumentStatus returns the verification record for docID. Read-only.
func (c *Contract) GetDocumentStatus(ctx context.Context, docID string) (*types.VerificationRecord, error) {
	raw, err := c.state.GetState(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("state read for %s failed: %w", docID, err)
	}
	if len(raw) == 0 {
		return nil, errs.NotFoundf("document %s has not been verified", docID)
	}
	var record types.VerificationRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("corrupt verification record for %s: %w", docID, err)
	}
	return &record, nil
}
