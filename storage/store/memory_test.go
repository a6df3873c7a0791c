package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"verichain/internal/errs"
	"verichain/internal/models"
)

func newPendingDoc(t *testing.T, s Store, id string) *models.Document {
	t.Helper()
	doc := &models.Document{
		ID:           id,
		OwnerID:      "owner-1",
		Name:         "deed.pdf",
		Type:         "property",
		FileLocation: "blobs/" + id,
		Status:       models.StatusPending,
	}
	require.NoError(t, s.CreateDocument(context.Background(), doc))
	return doc
}

func TestClaimForReviewExactlyOneWinner(t *testing.T) {
	s := NewMemoryStore()
	newPendingDoc(t, s, "doc-1")

	const contenders = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	conflicts := 0

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := models.Actor{ID: fmt.Sprintf("reviewer-%d", i), Role: models.RoleGovernment}
			_, err := s.ClaimForReview(context.Background(), "doc-1", actor, time.Now().UTC())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errs.IsRetryable(err):
				t.Errorf("claim race must not yield retryable errors, got %v", err)
			default:
				require.ErrorIs(t, err, errs.ErrStateConflict)
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, winners)
	require.Equal(t, contenders-1, conflicts)

	doc, err := s.GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusUnderReview, doc.Status)
	require.NotEmpty(t, doc.ReviewState.ReviewerID)
}

func TestReleaseClaimOnlyByClaimant(t *testing.T) {
	s := NewMemoryStore()
	newPendingDoc(t, s, "doc-1")
	ctx := context.Background()
	now := time.Now().UTC()

	claimant := models.Actor{ID: "reviewer-1", Role: models.RoleGovernment}
	_, err := s.ClaimForReview(ctx, "doc-1", claimant, now)
	require.NoError(t, err)

	err = s.ReleaseClaim(ctx, "doc-1", "reviewer-2", now)
	require.ErrorIs(t, err, errs.ErrStateConflict)

	doc, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusUnderReview, doc.Status)
	require.Equal(t, "reviewer-1", doc.ReviewState.ReviewerID)

	require.NoError(t, s.ReleaseClaim(ctx, "doc-1", "reviewer-1", now))
	doc, err = s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, doc.Status)
	require.Empty(t, doc.ReviewState.ReviewerID)
}

func TestMarkVerifiedRequiresClaim(t *testing.T) {
	s := NewMemoryStore()
	newPendingDoc(t, s, "doc-1")
	ctx := context.Background()
	now := time.Now().UTC()

	v := models.BlockchainVerification{TransactionID: "tx-123", Timestamp: now.UnixMilli(), VerifiedBy: "reviewer-1", DocHash: "h"}

	// Not claimed yet.
	err := s.MarkVerified(ctx, "doc-1", "reviewer-1", v, now)
	require.ErrorIs(t, err, errs.ErrStateConflict)

	_, err = s.ClaimForReview(ctx, "doc-1", models.Actor{ID: "reviewer-1", Role: models.RoleGovernment}, now)
	require.NoError(t, err)

	// Claimed by someone else.
	err = s.MarkVerified(ctx, "doc-1", "reviewer-2", v, now)
	require.ErrorIs(t, err, errs.ErrStateConflict)

	require.NoError(t, s.MarkVerified(ctx, "doc-1", "reviewer-1", v, now))
	doc, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusVerified, doc.Status)
	require.Equal(t, "reviewer-1", doc.ReviewedBy)
	require.NotNil(t, doc.Verification)
	require.Equal(t, "tx-123", doc.Verification.TransactionID)
}

func TestMarkRejectedRequiresClaim(t *testing.T) {
	s := NewMemoryStore()
	newPendingDoc(t, s, "doc-1")
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.ClaimForReview(ctx, "doc-1", models.Actor{ID: "reviewer-1", Role: models.RoleGovernment}, now)
	require.NoError(t, err)

	err = s.MarkRejected(ctx, "doc-1", "reviewer-2", "blurry scan", now)
	require.ErrorIs(t, err, errs.ErrStateConflict)

	require.NoError(t, s.MarkRejected(ctx, "doc-1", "reviewer-1", "blurry scan", now))
	doc, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, doc.Status)
	require.Equal(t, "blurry scan", doc.RejectionReason)
}

func TestOverrideStatusRefusesActiveClaim(t *testing.T) {
	s := NewMemoryStore()
	newPendingDoc(t, s, "doc-1")
	ctx := context.Background()
	now := time.Now().UTC()
	admin := models.Actor{ID: "admin-1", Role: models.RoleAdmin}

	_, err := s.ClaimForReview(ctx, "doc-1", models.Actor{ID: "reviewer-1", Role: models.RoleGovernment}, now)
	require.NoError(t, err)

	err = s.OverrideStatus(ctx, "doc-1", models.StatusRejected, admin, "fraud", now)
	require.ErrorIs(t, err, errs.ErrStateConflict)

	require.NoError(t, s.ReleaseClaim(ctx, "doc-1", "reviewer-1", now))
	require.NoError(t, s.OverrideStatus(ctx, "doc-1", models.StatusRejected, admin, "fraud", now))

	doc, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, doc.Status)
	require.Equal(t, "fraud", doc.StatusChangeReason)
}

func TestFindUnanchored(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	newPendingDoc(t, s, "doc-ok")
	_, err := s.ClaimForReview(ctx, "doc-ok", models.Actor{ID: "reviewer-1", Role: models.RoleGovernment}, now)
	require.NoError(t, err)
	require.NoError(t, s.MarkVerified(ctx, "doc-ok", "reviewer-1",
		models.BlockchainVerification{TransactionID: "tx-1", VerifiedBy: "reviewer-1", DocHash: "h", Timestamp: now.UnixMilli()}, now))

	// An override to verified writes no ledger anchor, which is exactly the
	// inconsistency the reconciliation check reports.
	newPendingDoc(t, s, "doc-bad")
	admin := models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	require.NoError(t, s.OverrideStatus(ctx, "doc-bad", models.StatusVerified, admin, "manual import", now))

	docs, err := s.FindUnanchored(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "doc-bad", docs[0].ID)
}

func TestStatusLogRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i, st := range []models.DocumentStatus{models.StatusUnderReview, models.StatusVerified} {
		require.NoError(t, s.AppendStatusLog(ctx, &models.StatusLogEntry{
			DocumentID: "doc-1",
			NewStatus:  st,
			ChangedBy:  "reviewer-1",
			ChangedAt:  time.Now().UTC().Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := s.ListStatusLog(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, models.StatusUnderReview, entries[0].NewStatus)
	require.Equal(t, models.StatusVerified, entries[1].NewStatus)
}
