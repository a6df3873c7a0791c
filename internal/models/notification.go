package models

// NotificationType distinguishes the events pushed to document owners.
type NotificationType string

const (
	NotificationStatusChange  NotificationType = "status_change"
	NotificationReviewStarted NotificationType = "review_started"
	NotificationSystem        NotificationType = "system"
)

// Notification is the message published to the notification topic and later
// persisted by the delivery worker. String timestamp keeps JSON serialization
// stable across producers.
type Notification struct {
	NotificationID string           `json:"NotificationID"`
	UserID         string           `json:"UserID"`
	Type           NotificationType `json:"Type"`
	Title          string           `json:"Title"`
	Message        string           `json:"Message"`
	DocumentID     string           `json:"DocumentID,omitempty"`
	DocumentName   string           `json:"DocumentName,omitempty"`
	CreatedAt      string           `json:"CreatedAt"`
}
