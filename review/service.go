package review

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"verichain/internal/blob"
	"verichain/internal/errs"
	"verichain/internal/models"
	"verichain/internal/notify"
	"verichain/storage/store"
)

// Service is the document review state machine. It enforces the legal
// transitions and reviewer exclusivity, and orchestrates the ledger
// submission so that the metadata store is never marked verified before the
// ledger has durably committed the anchoring transaction.
type Service struct {
	store         store.Store
	blobs         blob.Store
	submitter     VerifySubmitter
	notifier      *notify.Notifier
	logger        *log.Logger
	submitTimeout time.Duration
}

// NewService creates the review service.
func NewService(st store.Store, blobs blob.Store, submitter VerifySubmitter, notifier *notify.Notifier, submitTimeout time.Duration, logger *log.Logger) *Service {
	if submitTimeout <= 0 {
		submitTimeout = 60 * time.Second
	}
	return &Service{
		store:         st,
		blobs:         blobs,
		submitter:     submitter,
		notifier:      notifier,
		logger:        logger,
		submitTimeout: submitTimeout,
	}
}

// CreateDocument registers a freshly uploaded document in pending state.
func (s *Service) CreateDocument(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if doc.Status == "" {
		doc.Status = models.StatusPending
	}
	if doc.Status != models.StatusPending {
		return nil, errs.Validationf("new documents must start in %s state", models.StatusPending)
	}
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now().UTC()
	}
	doc.ReviewState = models.ReviewState{Status: models.StatusPending}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Printf("Document %s created by owner %s", doc.ID, doc.OwnerID)
	return doc, nil
}

// GetDocument returns one document.
func (s *Service) GetDocument(ctx context.Context, docID string) (*models.Document, error) {
	return s.store.GetDocument(ctx, docID)
}

// ListDocuments returns documents, optionally filtered by status.
func (s *Service) ListDocuments(ctx context.Context, status models.DocumentStatus) ([]models.Document, error) {
	if status != "" && !models.ValidStatus(status) {
		return nil, errs.Validationf("unknown document status %q", status)
	}
	return s.store.ListDocuments(ctx, status)
}

// StatusLog returns the audit trail of a document, oldest first.
func (s *Service) StatusLog(ctx context.Context, docID string) ([]models.StatusLogEntry, error) {
	return s.store.ListStatusLog(ctx, docID)
}

// StartReview claims a pending document for the given actor. The claim is a
// conditional update on the store: among N concurrent claimants exactly one
// wins, the rest get a state conflict.
func (s *Service) StartReview(ctx context.Context, docID string, actor models.Actor) (*models.Document, error) {
	if err := requireReviewer(actor); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc, err := s.store.ClaimForReview(ctx, docID, actor, now)
	if err != nil {
		return nil, err
	}

	s.appendLog(ctx, docID, models.StatusPending, models.StatusUnderReview, "", actor.ID, now)
	_ = s.notifier.ReviewStarted(ctx, doc.OwnerID, doc.ID, doc.Name, actor.Name)

	s.logger.Printf("Document %s claimed for review by %s", docID, actor.ID)
	return doc, nil
}

// ReleaseReview returns a claimed document to the pending pool. Only the
// current claimant may release.
func (s *Service) ReleaseReview(ctx context.Context, docID string, actor models.Actor) error {
	now := time.Now().UTC()
	if err := s.store.ReleaseClaim(ctx, docID, actor.ID, now); err != nil {
		return err
	}

	s.appendLog(ctx, docID, models.StatusUnderReview, models.StatusPending, "review released", actor.ID, now)
	s.logger.Printf("Document %s released back to pending by %s", docID, actor.ID)
	return nil
}

// Approve verifies a claimed document: it fetches the payload, computes the
// document hash, submits the verification transaction through the API
// server, and only after the ledger reports success marks the document
// verified. Any earlier failure leaves the document under review.
func (s *Service) Approve(ctx context.Context, docID string, actor models.Actor, comments string) (*models.Document, error) {
	if err := requireReviewer(actor); err != nil {
		return nil, err
	}

	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.StatusUnderReview {
		return nil, errs.Conflictf("document %s is %s, not %s", docID, doc.Status, models.StatusUnderReview)
	}
	if doc.ReviewState.ReviewerID != actor.ID {
		return nil, errs.Conflictf("document %s is claimed by %s", docID, doc.ReviewState.ReviewerID)
	}

	payload, err := s.blobs.Get(ctx, doc.FileLocation)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document payload: %w", err)
	}

	docHash := ComputeDocHash(doc)

	submitCtx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()

	result, err := s.submitter.Submit(submitCtx, SubmitRequest{
		DocID:      doc.ID,
		OwnerID:    doc.OwnerID,
		VerifiedBy: actor.ID,
		Comments:   comments,
		DocHash:    docHash,
		FileName:   doc.Name,
		File:       payload,
	})
	if err != nil {
		// The store is untouched: the document stays under_review and the
		// caller gets the full failure for retry or escalation.
		return nil, fmt.Errorf("ledger submission for %s failed: %w", docID, err)
	}

	now := time.Now().UTC()
	verification := models.BlockchainVerification{
		TransactionID: result.TxID,
		Timestamp:     now.UnixMilli(),
		VerifiedBy:    actor.ID,
		DocHash:       docHash,
	}
	if err := s.store.MarkVerified(ctx, docID, actor.ID, verification, now); err != nil {
		// Committed on ledger but not in the store. Surface loudly: the
		// reconciliation check will flag the document until this is repaired.
		s.logger.Printf("ALERT: document %s anchored as tx %s but store update failed: %v", docID, result.TxID, err)
		return nil, fmt.Errorf("document %s anchored (tx %s) but store update failed: %w", docID, result.TxID, err)
	}

	s.appendLog(ctx, docID, models.StatusUnderReview, models.StatusVerified, comments, actor.ID, now)
	_ = s.notifier.DocumentStatusChanged(ctx, doc.OwnerID, doc.ID, doc.Name, models.StatusVerified, "")

	s.logger.Printf("Document %s verified by %s, TxID: %s", docID, actor.ID, result.TxID)
	return s.store.GetDocument(ctx, docID)
}

// Reject marks a claimed document rejected. A non-blank reason is required.
func (s *Service) Reject(ctx context.Context, docID string, actor models.Actor, reason string) error {
	if err := requireReviewer(actor); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errs.Validationf("a rejection reason is required")
	}

	now := time.Now().UTC()
	if err := s.store.MarkRejected(ctx, docID, actor.ID, reason, now); err != nil {
		return err
	}

	doc, err := s.store.GetDocument(ctx, docID)
	if err == nil {
		_ = s.notifier.DocumentStatusChanged(ctx, doc.OwnerID, doc.ID, doc.Name, models.StatusRejected, reason)
	}
	s.appendLog(ctx, docID, models.StatusUnderReview, models.StatusRejected, reason, actor.ID, now)

	s.logger.Printf("Document %s rejected by %s: %s", docID, actor.ID, reason)
	return nil
}

// ChangeStatus is the admin override edge. It requires an override-capable
// role and a reason, and refuses to touch a document that is actively
// claimed, so the override cannot bypass reviewer exclusivity.
func (s *Service) ChangeStatus(ctx context.Context, docID string, actor models.Actor, newStatus models.DocumentStatus, reason string) error {
	if !actor.Role.CanOverride() {
		return fmt.Errorf("%w: role %q may not override document status", errs.ErrPrecondition, actor.Role)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errs.Validationf("a status change reason is required")
	}
	if !models.ValidStatus(newStatus) {
		return errs.Validationf("unknown document status %q", newStatus)
	}
	if newStatus == models.StatusUnderReview {
		return errs.Validationf("cannot force a document into %s", models.StatusUnderReview)
	}

	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return err
	}
	previous := doc.Status

	now := time.Now().UTC()
	if err := s.store.OverrideStatus(ctx, docID, newStatus, actor, reason, now); err != nil {
		return err
	}

	s.appendLog(ctx, docID, previous, newStatus, reason, actor.ID, now)
	_ = s.notifier.DocumentStatusChanged(ctx, doc.OwnerID, doc.ID, doc.Name, newStatus, reason)

	s.logger.Printf("Document %s status forced %s -> %s by %s", docID, previous, newStatus, actor.ID)
	return nil
}

// Reconcile reports verified documents that lack a ledger transaction
// reference. Any hit is a data-integrity alarm.
func (s *Service) Reconcile(ctx context.Context) ([]models.Document, error) {
	docs, err := s.store.FindUnanchored(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		s.logger.Printf("ALERT: document %s is verified without a ledger transaction reference", d.ID)
	}
	return docs, nil
}

func (s *Service) appendLog(ctx context.Context, docID string, prev, next models.DocumentStatus, reason, changedBy string, at time.Time) {
	entry := &models.StatusLogEntry{
		DocumentID:     docID,
		PreviousStatus: prev,
		NewStatus:      next,
		Reason:         reason,
		ChangedBy:      changedBy,
		ChangedAt:      at,
	}
	if err := s.store.AppendStatusLog(ctx, entry); err != nil {
		s.logger.Printf("Warning: failed to append status log for %s: %v", docID, err)
	}
}

func requireReviewer(actor models.Actor) error {
	if !actor.Role.Known() {
		return errs.Validationf("unknown role %q", actor.Role)
	}
	if !actor.Role.CanReview() {
		return fmt.Errorf("%w: role %q may not review documents", errs.ErrPrecondition, actor.Role)
	}
	return nil
}
