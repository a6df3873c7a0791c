package local

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"verichain/internal/errs"
	"verichain/ledger/types"
)

func newTestBackend() *Backend {
	return NewBackend(log.New(os.Stdout, "[LOCAL-TEST] ", log.LstdFlags))
}

func TestSubmitAndGetAcrossSessions(t *testing.T) {
	backend := newTestBackend()
	ctx := context.Background()

	sess, err := backend.Connect(ctx)
	require.NoError(t, err)

	proof, err := sess.SubmitVerification(ctx, types.Submission{
		DocID:      "doc-1",
		DocHash:    "hash-1",
		VerifiedBy: "reviewer-1",
		Timestamp:  "1700000000000",
		Comments:   "ok",
	})
	require.NoError(t, err)
	require.NotEmpty(t, proof.TransactionID)
	require.Equal(t, uint64(1), proof.BlockHeight)
	require.NoError(t, sess.Close())

	// State written through one session is visible to the next.
	sess2, err := backend.Connect(ctx)
	require.NoError(t, err)
	defer sess2.Close()

	record, err := sess2.GetVerification(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, "hash-1", record.DocHash)
	require.Equal(t, types.StatusVerified, record.Status)
}

func TestBlockHeightAdvancesPerSubmission(t *testing.T) {
	backend := newTestBackend()
	ctx := context.Background()

	sess, err := backend.Connect(ctx)
	require.NoError(t, err)
	defer sess.Close()

	for i := 1; i <= 3; i++ {
		proof, err := sess.SubmitVerification(ctx, types.Submission{
			DocID:      "doc-1",
			DocHash:    "h",
			VerifiedBy: "r",
			Timestamp:  "1700000000000",
		})
		require.NoError(t, err)
		require.Equal(t, uint64(i), proof.BlockHeight)
	}
}

func TestGetUnknownDocument(t *testing.T) {
	backend := newTestBackend()
	sess, err := backend.Connect(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.GetVerification(context.Background(), "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestEventsRecorded(t *testing.T) {
	backend := newTestBackend()
	sess, err := backend.Connect(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.SubmitVerification(context.Background(), types.Submission{
		DocID: "doc-1", DocHash: "h", VerifiedBy: "r", Timestamp: "1",
	})
	require.NoError(t, err)

	events := backend.Events()
	require.Len(t, events, 1)
	require.Equal(t, types.EventDocumentVerified, events[0].Topic)
}
