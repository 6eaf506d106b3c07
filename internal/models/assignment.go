package models

import (
	"time"

	"github.com/lib/pq"
)

// SubmissionStatus reflects the outcome of a bulk email submission.
type SubmissionStatus string

const (
	SubmissionStatusCompleted SubmissionStatus = "completed"
	SubmissionStatusPartial   SubmissionStatus = "partial"
)

// Assignment is a gradable task whose completion is tracked through
// submitted email lists rather than file uploads.
type Assignment struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	MissionID   *string    `db:"mission_id" json:"mission_id,omitempty"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`
	CreatedBy   string     `db:"created_by" json:"created_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// AssignmentCompletion is one append-only entry in an assignment's
// completion log. EmailNormalized carries the lowercased address backing
// the per-assignment uniqueness constraint.
type AssignmentCompletion struct {
	ID              string    `db:"id" json:"id"`
	AssignmentID    string    `db:"assignment_id" json:"assignment_id"`
	Email           string    `db:"email" json:"email"`
	EmailNormalized string    `db:"email_normalized" json:"-"`
	AddedAt         time.Time `db:"added_at" json:"added_at"`
	AddedBy         string    `db:"added_by" json:"added_by"`
}

// EmailSubmission is the audit record of one bulk-submit operation.
type EmailSubmission struct {
	ID             string           `db:"id" json:"id"`
	AssignmentID   string           `db:"assignment_id" json:"assignment_id"`
	SubmittedBy    string           `db:"submitted_by" json:"submitted_by"`
	SubmittedAt    time.Time        `db:"submitted_at" json:"submitted_at"`
	EmailList      pq.StringArray   `db:"email_list" json:"email_list"`
	ProcessedCount int              `db:"processed_count" json:"processed_count"`
	SuccessCount   int              `db:"success_count" json:"success_count"`
	ErrorCount     int              `db:"error_count" json:"error_count"`
	DuplicateCount int              `db:"duplicate_count" json:"duplicate_count"`
	Status         SubmissionStatus `db:"status" json:"status"`
}

// AssignmentFilter captures listing criteria for assignments.
type AssignmentFilter struct {
	MissionID string
	Published *bool
	Search    string
	Page      int
	PageSize  int
}
