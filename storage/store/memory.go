package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"verichain/internal/errs"
	"verichain/internal/models"
)

// MemoryStore implements Store in process memory. It honors the same
// conditional-update contract as the Postgres store (all checks and writes
// happen under one lock), so review-race behavior is identical in tests and
// development setups.
type MemoryStore struct {
	mu            sync.Mutex
	documents     map[string]*models.Document
	statusLogs    map[string][]models.StatusLogEntry
	notifications map[string]*models.Notification
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents:     make(map[string]*models.Document),
		statusLogs:    make(map[string][]models.StatusLogEntry),
		notifications: make(map[string]*models.Notification),
	}
}

func (s *MemoryStore) Close() {}

func cloneDocument(d *models.Document) *models.Document {
	out := *d
	if d.Verification != nil {
		v := *d.Verification
		out.Verification = &v
	}
	return &out
}

func (s *MemoryStore) CreateDocument(_ context.Context, doc *models.Document) error {
	if doc.Status == "" {
		doc.Status = models.StatusPending
	}
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now().UTC()
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; exists {
		return errs.Conflictf("document %s already exists", doc.ID)
	}
	s.documents[doc.ID] = cloneDocument(doc)
	return nil
}

func (s *MemoryStore) GetDocument(_ context.Context, id string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, errs.NotFoundf("document %s", id)
	}
	return cloneDocument(doc), nil
}

func (s *MemoryStore) ListDocuments(_ context.Context, status models.DocumentStatus) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var docs []models.Document
	for _, doc := range s.documents {
		if status == "" || doc.Status == status {
			docs = append(docs, *cloneDocument(doc))
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].UploadDate.Before(docs[j].UploadDate) })
	return docs, nil
}

func (s *MemoryStore) ClaimForReview(_ context.Context, docID string, actor models.Actor, now time.Time) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[docID]
	if !ok {
		return nil, errs.NotFoundf("document %s", docID)
	}
	if doc.Status != models.StatusPending {
		return nil, errs.Conflictf("document %s is not pending review", docID)
	}
	doc.Status = models.StatusUnderReview
	doc.ReviewState = models.ReviewState{
		Status:          models.StatusUnderReview,
		ReviewerID:      actor.ID,
		ReviewerName:    actor.Name,
		ReviewStartedAt: &now,
		LastUpdatedAt:   &now,
	}
	return cloneDocument(doc), nil
}

func (s *MemoryStore) ReleaseClaim(_ context.Context, docID, reviewerID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[docID]
	if !ok {
		return errs.NotFoundf("document %s", docID)
	}
	if doc.Status != models.StatusUnderReview || doc.ReviewState.ReviewerID != reviewerID {
		return errs.Conflictf("document %s is not under review by %s", docID, reviewerID)
	}
	doc.Status = models.StatusPending
	doc.ReviewState = models.ReviewState{Status: models.StatusPending, LastUpdatedAt: &now}
	return nil
}

func (s *MemoryStore) MarkVerified(_ context.Context, docID, reviewerID string, v models.BlockchainVerification, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[docID]
	if !ok {
		return errs.NotFoundf("document %s", docID)
	}
	if doc.Status != models.StatusUnderReview || doc.ReviewState.ReviewerID != reviewerID {
		return errs.Conflictf("document %s is not under review by %s", docID, reviewerID)
	}
	doc.Status = models.StatusVerified
	doc.ReviewState.Status = models.StatusVerified
	doc.ReviewState.LastUpdatedAt = &now
	doc.ReviewedBy = reviewerID
	doc.ReviewDate = &now
	verification := v
	doc.Verification = &verification
	return nil
}

func (s *MemoryStore) MarkRejected(_ context.Context, docID, reviewerID, reason string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[docID]
	if !ok {
		return errs.NotFoundf("document %s", docID)
	}
	if doc.Status != models.StatusUnderReview || doc.ReviewState.ReviewerID != reviewerID {
		return errs.Conflictf("document %s is not under review by %s", docID, reviewerID)
	}
	doc.Status = models.StatusRejected
	doc.ReviewState.Status = models.StatusRejected
	doc.ReviewState.LastUpdatedAt = &now
	doc.ReviewedBy = reviewerID
	doc.ReviewDate = &now
	doc.RejectionReason = reason
	return nil
}

func (s *MemoryStore) OverrideStatus(_ context.Context, docID string, newStatus models.DocumentStatus, actor models.Actor, reason string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[docID]
	if !ok {
		return errs.NotFoundf("document %s", docID)
	}
	if doc.Status == models.StatusUnderReview {
		return errs.Conflictf("document %s is actively claimed; release the review first", docID)
	}
	doc.Status = newStatus
	doc.ReviewState.Status = newStatus
	doc.ReviewState.LastUpdatedAt = &now
	doc.StatusChangeReason = reason
	doc.ReviewedBy = actor.ID
	doc.ReviewDate = &now
	return nil
}

func (s *MemoryStore) AppendStatusLog(_ context.Context, entry *models.StatusLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusLogs[entry.DocumentID] = append(s.statusLogs[entry.DocumentID], *entry)
	return nil
}

func (s *MemoryStore) ListStatusLog(_ context.Context, docID string) ([]models.StatusLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]models.StatusLogEntry, len(s.statusLogs[docID]))
	copy(entries, s.statusLogs[docID])
	return entries, nil
}

func (s *MemoryStore) FindUnanchored(_ context.Context) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var docs []models.Document
	for _, doc := range s.documents {
		if doc.Status == models.StatusVerified &&
			(doc.Verification == nil || doc.Verification.TransactionID == "") {
			docs = append(docs, *cloneDocument(doc))
		}
	}
	return docs, nil
}

func (s *MemoryStore) InsertNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.notifications[n.NotificationID]; exists {
		return nil
	}
	stored := *n
	s.notifications[n.NotificationID] = &stored
	return nil
}

// Notifications returns the persisted notifications for assertions in tests.
func (s *MemoryStore) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out
}

var _ Store = (*MemoryStore)(nil)
