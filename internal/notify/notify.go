package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"verichain/internal/messaging/producer"
	"verichain/internal/models"
)

// Notifier publishes user-facing notifications about document lifecycle
// events. Delivery is best-effort: callers treat a failed publish as a
// warning, never as a reason to roll back the triggering operation.
type Notifier struct {
	producer producer.Producer
	logger   *log.Logger
}

// New creates a Notifier on top of the given producer.
func New(p producer.Producer, logger *log.Logger) *Notifier {
	return &Notifier{producer: p, logger: logger}
}

// DocumentStatusChanged tells a document owner that the status of one of
// their documents changed.
func (n *Notifier) DocumentStatusChanged(ctx context.Context, ownerID, docID, docName string, newStatus models.DocumentStatus, reason string) error {
	title := fmt.Sprintf("Document %s", newStatus)
	message := fmt.Sprintf("Your document '%s' is now %s.", docName, newStatus)
	if reason != "" {
		message = fmt.Sprintf("%s Reason: %s", message, reason)
	}
	return n.publish(ctx, &models.Notification{
		UserID:       ownerID,
		Type:         models.NotificationStatusChange,
		Title:        title,
		Message:      message,
		DocumentID:   docID,
		DocumentName: docName,
	})
}

// ReviewStarted tells a document owner that a reviewer picked up their
// document.
func (n *Notifier) ReviewStarted(ctx context.Context, ownerID, docID, docName, reviewerName string) error {
	return n.publish(ctx, &models.Notification{
		UserID:       ownerID,
		Type:         models.NotificationReviewStarted,
		Title:        "Document Under Review",
		Message:      fmt.Sprintf("Your document '%s' is being reviewed by %s.", docName, reviewerName),
		DocumentID:   docID,
		DocumentName: docName,
	})
}

// System sends a free-form system notification to a user.
func (n *Notifier) System(ctx context.Context, userID, title, message string) error {
	return n.publish(ctx, &models.Notification{
		UserID:  userID,
		Type:    models.NotificationSystem,
		Title:   title,
		Message: message,
	})
}

func (n *Notifier) publish(ctx context.Context, notification *models.Notification) error {
	notification.NotificationID = uuid.NewString()
	notification.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	if err := n.producer.Publish(ctx, notification); err != nil {
		n.logger.Printf("Warning: failed to publish notification %s for user %s: %v",
			notification.NotificationID, notification.UserID, err)
		return err
	}
	return nil
}
