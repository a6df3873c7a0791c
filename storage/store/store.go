// Package store holds the document metadata store. The review state machine
// relies on its conditional updates: every transition is a compare-and-swap
// on the expected prior state, so two reviewers racing for the same document
// cannot both win regardless of which process they run in.
package store

import (
	"context"
	"time"

	"verichain/internal/models"
)

// Store is the metadata-store interface consumed by the review service and
// the notification delivery worker. Implementations must make each mutation
// atomic per document; a failed condition is reported as a state conflict.
type Store interface {
	// CreateDocument registers a new document. Status defaults to pending.
	CreateDocument(ctx context.Context, doc *models.Document) error

	// GetDocument returns the document or a not-found error.
	GetDocument(ctx context.Context, id string) (*models.Document, error)

	// ListDocuments returns documents filtered by status; an empty status
	// returns everything.
	ListDocuments(ctx context.Context, status models.DocumentStatus) ([]models.Document, error)

	// ClaimForReview atomically moves a pending document to under_review and
	// records the claimant. At most one of N concurrent callers succeeds; the
	// rest receive a state conflict.
	ClaimForReview(ctx context.Context, docID string, actor models.Actor, now time.Time) (*models.Document, error)

	// ReleaseClaim atomically moves an under_review document claimed by
	// reviewerID back to pending, clearing the reviewer fields.
	ReleaseClaim(ctx context.Context, docID, reviewerID string, now time.Time) error

	// MarkVerified atomically moves an under_review document claimed by
	// reviewerID to verified, recording the ledger anchor. Called only after
	// the ledger submission has returned success.
	MarkVerified(ctx context.Context, docID, reviewerID string, v models.BlockchainVerification, now time.Time) error

	// MarkRejected atomically moves an under_review document claimed by
	// reviewerID to rejected with the given reason.
	MarkRejected(ctx context.Context, docID, reviewerID, reason string, now time.Time) error

	// OverrideStatus force-sets the status of a document that is NOT
	// under_review. The reviewer-exclusivity rule cannot be bypassed through
	// an override while a claim is active.
	OverrideStatus(ctx context.Context, docID string, newStatus models.DocumentStatus, actor models.Actor, reason string, now time.Time) error

	// AppendStatusLog records one audit entry for a status change.
	AppendStatusLog(ctx context.Context, entry *models.StatusLogEntry) error

	// ListStatusLog returns the audit trail for a document, oldest first.
	ListStatusLog(ctx context.Context, docID string) ([]models.StatusLogEntry, error)

	// FindUnanchored reports verified documents lacking a ledger transaction
	// reference. Such rows are a data-integrity alarm, not a normal state.
	FindUnanchored(ctx context.Context) ([]models.Document, error)

	// InsertNotification persists a delivered notification.
	InsertNotification(ctx context.Context, n *models.Notification) error

	// Close releases the underlying resources.
	Close()
}
