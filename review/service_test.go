package review

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"verichain/internal/blob"
	"verichain/internal/errs"
	"verichain/internal/messaging/producer"
	"verichain/internal/models"
	"verichain/internal/notify"
	"verichain/storage/store"
)

// fakeSubmitter records submissions and returns a canned result or error.
type fakeSubmitter struct {
	mu     sync.Mutex
	calls  []SubmitRequest
	result *SubmitResult
	err    error
}

func (f *fakeSubmitter) Submit(_ context.Context, req SubmitRequest) (*SubmitResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	res := *f.result
	if res.DocHash == "" {
		res.DocHash = req.DocHash
	}
	return &res, nil
}

type testEnv struct {
	svc       *Service
	store     *store.MemoryStore
	blobs     *blob.MemoryStore
	submitter *fakeSubmitter
	published *producer.MockProducer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := log.New(os.Stdout, "[REVIEW-TEST] ", log.LstdFlags)
	st := store.NewMemoryStore()
	blobs := blob.NewMemoryStore()
	submitter := &fakeSubmitter{result: &SubmitResult{TxID: "tx-123", Block: 7}}
	mock := producer.NewMockProducer()
	notifier := notify.New(mock, logger)
	return &testEnv{
		svc:       NewService(st, blobs, submitter, notifier, 0, logger),
		store:     st,
		blobs:     blobs,
		submitter: submitter,
		published: mock,
	}
}

func (e *testEnv) createDoc(t *testing.T, id string) *models.Document {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.blobs.Put(ctx, "blobs/"+id, []byte("%PDF-1.4 test payload")))
	doc, err := e.svc.CreateDocument(ctx, &models.Document{
		ID:           id,
		OwnerID:      "owner-1",
		Name:         "deed.pdf",
		Type:         "property",
		FileLocation: "blobs/" + id,
	})
	require.NoError(t, err)
	return doc
}

var (
	reviewer = models.Actor{ID: "reviewer-1", Name: "Asha", Role: models.RoleGovernment}
	admin    = models.Actor{ID: "admin-1", Name: "Root", Role: models.RoleAdmin}
	civilian = models.Actor{ID: "user-1", Name: "Sam", Role: models.RoleUser}
)

func TestStartReviewClaimsAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	env.createDoc(t, "doc-1")
	ctx := context.Background()

	doc, err := env.svc.StartReview(ctx, "doc-1", reviewer)
	require.NoError(t, err)
	require.Equal(t, models.StatusUnderReview, doc.Status)
	require.Equal(t, "reviewer-1", doc.ReviewState.ReviewerID)
	require.NotNil(t, doc.ReviewState.ReviewStartedAt)

	published := env.published.Published()
	require.Len(t, published, 1)
	require.Equal(t, "owner-1", published[0].UserID)
	require.Equal(t, models.NotificationReviewStarted, published[0].Type)

	entries, err := env.svc.StatusLog(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.StatusUnderReview, entries[0].NewStatus)
}

func TestStartReviewRejectsNonReviewerRoles(t *testing.T) {
	env := newTestEnv(t)
	env.createDoc(t, "doc-1")

	_, err := env.svc.StartReview(context.Background(), "doc-1", civilian)
	require.ErrorIs(t, err, errs.ErrPrecondition)

	doc, err := env.svc.GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, doc.Status)
}

func TestStartReviewRaceHasOneWinner(t *testing.T) {
	env := newTestEnv(t)
	env.createDoc(t, "doc-1")

	const contenders = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := models.Actor{ID: fmt.Sprintf("reviewer-%d", i), Role: models.RoleGovernment}
			_, err := env.svc.StartReview(context.Background(), "doc-1", actor)
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			} else {
				require.ErrorIs(t, err, errs.ErrStateConflict)
			}
		}(i)
	}
	wg.Wait()
	require.Equal(t, 1, winners)
}

func TestApproveEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.createDoc(t, "doc-1")
	ctx := context.Background()

	_, err := env.svc.StartReview(ctx, "doc-1", reviewer)
	require.NoError(t, err)

	doc, err := env.svc.Approve(ctx, "doc-1", reviewer, "all checks passed")
	require.NoError(t, err)
	require.Equal(t, models.StatusVerified, doc.Status)
	require.NotNil(t, doc.Verification)
	require.Equal(t, "tx-123", doc.Verification.TransactionID)
	require.Equal(t, "reviewer-1", doc.Verification.VerifiedBy)
	require.NotEmpty(t, doc.Verification.DocHash)

	// The submission carried the deterministic document hash and the payload.
	require.Len(t, env.submitter.calls, 1)
	call := env.submitter.calls[0]
	require.Equal(t, doc.Verification.DocHash, call.DocHash)
	require.Equal(t, []byte("%PDF-1.4 test payload"), call.File)
	require.Equal(t, "reviewer-1", call.VerifiedBy)

	// Owner was told about the verification.
	published := env.published.Published()
	require.Len(t, published, 2) // review started + verified
	require.Equal(t, models.NotificationStatusChange, published[1].Type)

	// Nothing left for reconciliation.
	inconsistent, err := env.svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Empty(t, inconsistent)
}

func TestApproveLedgerFailureLeavesUnderReview(t *testing.T) {
	env := newTestEnv(t)
	env.createDoc(t, "doc-1")
	ctx := context.Background()

	_, err := env.svc.StartReview(ctx, "doc-1", reviewer)
	require.NoError(t, err)

	env.submitter.err = fmt.Errorf("%w: ordering service unavailable", errs.ErrTransient)

	_, err = env.svc.Approve(ctx, "doc-1", reviewer, "")
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.ErrTransient))

	doc, err := env.svc.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusUnderReview, doc.Status)
	require.Nil(t, doc.Verification)
}

func TestApproveOnlyByClaimant(t *testing.T) {
	env := newTestEnv(t)
	env.createDoc(t, "doc-1")
	ctx := context.Background()

	_, err := env.svc.StartReview(ctx, "doc-1", reviewer)
	require.NoError(t, err)

	other := models.Actor{ID: "reviewer-2", Role: models.RoleGovernment}
	_, err = env.svc.Approve(ctx, "doc-1", other, "")
	require.ErrorIs(t, err, errs.ErrStateConflict)
	require.Empty(t, env.submitter.calls)
}

func TestApproveRequiresUnderReview(t *testing.T) {
	env := newTestEnv(t)
	env.createDoc(t, "doc-1")

	_, err := env.svc.Approve(context.Background(), "doc-1", reviewer, "")
	require.ErrorIs(t, err, errs.ErrStateConflict)
}

func TestReleaseReviewOnlyByClaimant(t *testing.T) {
	env := newTestEnv(t)
	env.createDoc(t, "doc-1")
	ctx := context.Background()

	_, err := env.svc.StartReview(ctx, "doc-1", reviewer)
	require.NoError(t, err)

	other := models.Actor{ID: "reviewer-2", Role: models.RoleGovernment}
	err = env.svc.ReleaseReview(ctx, "doc-1", other)
	require.ErrorIs(t, err, errs.ErrStateConflict)

	require.NoError(t, env.svc.ReleaseReview(ctx, "doc-1", reviewer))
	doc, err := env.svc.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, doc.Status)
}

func TestRejectRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	env.createDoc(t, "doc-1")
	ctx := context.Background()

	_, err := env.svc.StartReview(ctx, "doc-1", reviewer)
	require.NoError(t, err)

	err = env.svc.Reject(ctx, "doc-1", reviewer, "")
	require.ErrorIs(t, err, errs.ErrValidation)

	// Whitespace padding is not a reason either.
	err = env.svc.Reject(ctx, "doc-1", reviewer, "   \t\n")
	require.ErrorIs(t, err, errs.ErrValidation)

	doc, err := env.svc.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusUnderReview, doc.Status)

	require.NoError(t, env.svc.Reject(ctx, "doc-1", reviewer, "blurry scan"))
	doc, err = env.svc.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, doc.Status)
	require.Equal(t, "blurry scan", doc.RejectionReason)
}

func TestChangeStatusAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	env.createDoc(t, "doc-1")
	ctx := context.Background()

	err := env.svc.ChangeStatus(ctx, "doc-1", reviewer, models.StatusRejected, "fraud")
	require.ErrorIs(t, err, errs.ErrPrecondition)

	err = env.svc.ChangeStatus(ctx, "doc-1", admin, models.StatusRejected, "")
	require.ErrorIs(t, err, errs.ErrValidation)

	err = env.svc.ChangeStatus(ctx, "doc-1", admin, models.StatusRejected, " \t ")
	require.ErrorIs(t, err, errs.ErrValidation)

	require.NoError(t, env.svc.ChangeStatus(ctx, "doc-1", admin, models.StatusRejected, "fraud"))
	doc, err := env.svc.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, doc.Status)
	require.Equal(t, "fraud", doc.StatusChangeReason)
}

func TestChangeStatusCannotBypassActiveClaim(t *testing.T) {
	env := newTestEnv(t)
	env.createDoc(t, "doc-1")
	ctx := context.Background()

	_, err := env.svc.StartReview(ctx, "doc-1", reviewer)
	require.NoError(t, err)

	err = env.svc.ChangeStatus(ctx, "doc-1", admin, models.StatusVerified, "expedite")
	require.ErrorIs(t, err, errs.ErrStateConflict)
}

func TestReconcileFlagsOverrideToVerified(t *testing.T) {
	env := newTestEnv(t)
	env.createDoc(t, "doc-1")
	ctx := context.Background()

	require.NoError(t, env.svc.ChangeStatus(ctx, "doc-1", admin, models.StatusVerified, "manual import"))

	inconsistent, err := env.svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, inconsistent, 1)
	require.Equal(t, "doc-1", inconsistent[0].ID)
}
