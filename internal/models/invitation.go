package models

import "time"

// InvitationStatus tracks email delivery per invited student.
type InvitationStatus string

const (
	InvitationStatusPending InvitationStatus = "PENDING"
	InvitationStatusSent    InvitationStatus = "SENT"
	InvitationStatusFailed  InvitationStatus = "FAILED"
)

// Invitation records one temporary-credential email sent to a student.
type Invitation struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Email     string           `db:"email" json:"email"`
	Status    InvitationStatus `db:"status" json:"status"`
	SentAt    *time.Time       `db:"sent_at" json:"sent_at,omitempty"`
	Error     string           `db:"error" json:"error,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
