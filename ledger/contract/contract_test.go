package contract

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"verichain/internal/errs"
	"verichain/ledger/types"
)

func TestVerifyDocumentWritesRecordAndEvent(t *testing.T) {
	state := NewMemoryState()
	c := New(state)

	record, err := c.VerifyDocument(context.Background(), types.Submission{
		DocID:      "doc-1",
		OwnerID:    "owner-1",
		DocHash:    "abc123",
		VerifiedBy: "reviewer-1",
		Timestamp:  "1700000000000",
		Comments:   "looks good",
	})
	require.NoError(t, err)
	require.Equal(t, "doc-1", record.DocID)
	require.Equal(t, "owner-1", record.OwnerID)
	require.Equal(t, "abc123", record.DocHash)
	require.Equal(t, "reviewer-1", record.VerifiedBy)
	require.Equal(t, int64(1700000000000), record.Timestamp)
	require.Equal(t, types.StatusVerified, record.Status)

	events := state.Events()
	require.Len(t, events, 1)
	require.Equal(t, types.EventDocumentVerified, events[0].Topic)

	var fromEvent types.VerificationRecord
	require.NoError(t, json.Unmarshal(events[0].Payload, &fromEvent))
	require.Equal(t, *record, fromEvent)
}

func TestVerifyDocumentRequiredArguments(t *testing.T) {
	c := New(NewMemoryState())
	ctx := context.Background()

	cases := []struct {
		name                       string
		docID, docHash, verifiedBy string
	}{
		{"missing docId", "", "h", "r"},
		{"missing docHash", "d", "", "r"},
		{"missing verifiedBy", "d", "h", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.VerifyDocument(ctx, types.Submission{
				DocID: tc.docID, DocHash: tc.docHash, VerifiedBy: tc.verifiedBy, Timestamp: "1700000000000",
			})
			require.ErrorIs(t, err, errs.ErrLedgerRejection)
		})
	}
}

func TestVerifyDocumentRejectsBadTimestamp(t *testing.T) {
	c := New(NewMemoryState())
	_, err := c.VerifyDocument(context.Background(), types.Submission{
		DocID: "doc-1", DocHash: "h", VerifiedBy: "r", Timestamp: "not-a-number",
	})
	require.ErrorIs(t, err, errs.ErrLedgerRejection)
}

func TestVerifyDocumentTimestampOrdering(t *testing.T) {
	c := New(NewMemoryState())
	ctx := context.Background()

	_, err := c.VerifyDocument(ctx, types.Submission{
		DocID: "doc-1", DocHash: "h1", VerifiedBy: "r1", Timestamp: "2000",
	})
	require.NoError(t, err)

	// Older timestamp must not overwrite the recorded fact.
	_, err = c.VerifyDocument(ctx, types.Submission{
		DocID: "doc-1", DocHash: "h2", VerifiedBy: "r2", Timestamp: "1000",
	})
	require.ErrorIs(t, err, errs.ErrLedgerRejection)

	got, err := c.GetDocumentStatus(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, "h1", got.DocHash)

	// Equal or newer timestamps overwrite, last write wins per key.
	_, err = c.VerifyDocument(ctx, types.Submission{
		DocID: "doc-1", DocHash: "h3", VerifiedBy: "r3", Timestamp: "2000",
	})
	require.NoError(t, err)

	got, err = c.GetDocumentStatus(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, "h3", got.DocHash)
	require.Equal(t, "r3", got.VerifiedBy)
}

func TestGetDocumentStatusNotFound(t *testing.T) {
	c := New(NewMemoryState())
	_, err := c.GetDocumentStatus(context.Background(), "missing")
	require.True(t, errors.Is(err, errs.ErrNotFound))
}
