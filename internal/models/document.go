package models

import (
	"time"

	"verichain/internal/errs"
)

// DocumentStatus is the review lifecycle state of a submitted document.
type DocumentStatus string

const (
	StatusPending     DocumentStatus = "pending"
	StatusUnderReview DocumentStatus = "under_review"
	StatusVerified    DocumentStatus = "verified"
	StatusRejected    DocumentStatus = "rejected"
)

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s DocumentStatus) bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// ReviewState tracks the current claim on a document under review.
type ReviewState struct {
	Status          DocumentStatus `json:"status"`
	ReviewerID      string         `json:"reviewerId,omitempty"`
	ReviewerName    string         `json:"reviewerName,omitempty"`
	ReviewStartedAt *time.Time     `json:"reviewStartedAt,omitempty"`
	LastUpdatedAt   *time.Time     `json:"lastUpdatedAt,omitempty"`
}

// BlockchainVerification is present only after a successful ledger submission.
// A verified document with an empty TransactionID is an inconsistent state.
type BlockchainVerification struct {
	TransactionID string `json:"transactionId"`
	Timestamp     int64  `json:"timestamp"`
	VerifiedBy    string `json:"verifiedBy"`
	DocHash       string `json:"docHash"`
}

// Document is the single strongly-typed document record flowing through the
// review pipeline. It is validated once at the storage boundary.
type Document struct {
	ID                 string                  `json:"id"`
	OwnerID            string                  `json:"ownerId"`
	Name               string                  `json:"name"`
	Type               string                  `json:"type"`
	UploadDate         time.Time               `json:"uploadDate"`
	FileLocation       string                  `json:"fileLocation"`
	Status             DocumentStatus          `json:"status"`
	ReviewState        ReviewState             `json:"reviewState"`
	ReviewedBy         string                  `json:"reviewedBy,omitempty"`
	ReviewDate         *time.Time              `json:"reviewDate,omitempty"`
	RejectionReason    string                  `json:"rejectionReason,omitempty"`
	StatusChangeReason string                  `json:"statusChangeReason,omitempty"`
	Verification       *BlockchainVerification `json:"blockchainVerification,omitempty"`
}

// Validate checks the invariants enforced at the storage boundary.
func (d *Document) Validate() error {
	switch {
	case d.ID == "":
		return errs.Validationf("document id is required")
	case d.OwnerID == "":
		return errs.Validationf("document ownerId is required")
	case d.Name == "":
		return errs.Validationf("document name is required")
	case !ValidStatus(d.Status):
		return errs.Validationf("unknown document status %q", d.Status)
	}
	if d.Status == StatusUnderReview && d.ReviewState.ReviewerID == "" {
		return errs.Validationf("under_review document must carry a reviewerId")
	}
	return nil
}

// StatusLogEntry is one row of the status-change audit log.
type StatusLogEntry struct {
	DocumentID     string         `json:"documentId"`
	PreviousStatus DocumentStatus `json:"previousStatus"`
	NewStatus      DocumentStatus `json:"newStatus"`
	Reason         string         `json:"reason,omitempty"`
	ChangedBy      string         `json:"changedBy"`
	ChangedAt      time.Time      `json:"changedAt"`
}
