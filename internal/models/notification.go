package models

import "time"

// NotificationType classifies stored notifications.
const (
	NotificationTypeEmailSubmission = "EMAIL_SUBMISSION"
	NotificationTypeMentorAssigned  = "MENTOR_ASSIGNED"
	NotificationTypeGroupChanged    = "GROUP_CHANGED"
)

// Notification is a persisted, best-effort user notification. Failures to
// create or deliver one never fail the triggering operation.
type Notification struct {
	ID          string    `db:"id" json:"id"`
	RecipientID string    `db:"recipient_id" json:"recipient_id"`
	Type        string    `db:"type" json:"type"`
	Subject     string    `db:"subject" json:"subject"`
	Body        string    `db:"body" json:"body"`
	Read        bool      `db:"read" json:"read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
