package models

import "time"

// CompletionReportRow is one completion entry joined with its assignment.
type CompletionReportRow struct {
	AssignmentID    string    `db:"assignment_id" json:"assignment_id"`
	AssignmentTitle string    `db:"assignment_title" json:"assignment_title"`
	Email           string    `db:"email" json:"email"`
	EmailNormalized string    `db:"email_normalized" json:"email_normalized"`
	AddedAt         time.Time `db:"added_at" json:"added_at"`
	AddedBy         string    `db:"added_by" json:"added_by"`
}

// RosterReportRow is a mission roster entry with group and mentor context.
type RosterReportRow struct {
	StudentID     string     `db:"student_id" json:"student_id"`
	FullName      string     `db:"full_name" json:"full_name"`
	Email         string     `db:"email" json:"email"`
	Status        string     `db:"status" json:"status"`
	GroupName     *string    `db:"group_name" json:"group_name,omitempty"`
	PrimaryMentor *string    `db:"primary_mentor" json:"primary_mentor,omitempty"`
	JoinedAt      *time.Time `db:"joined_at" json:"joined_at,omitempty"`
}

// MentorWorkloadRow summarizes one mentor's load inside a mission.
type MentorWorkloadRow struct {
	MentorID      string       `db:"mentor_id" json:"mentor_id"`
	MentorName    string       `db:"mentor_name" json:"mentor_name"`
	Role          string       `db:"role" json:"role"`
	Status        MentorStatus `db:"status" json:"status"`
	AssignedCount int          `db:"assigned_count" json:"assigned_count"`
	MaxStudents   int          `db:"max_students" json:"max_students"`
}

// Utilization returns load as a percentage of the effective capacity cap.
func (r MentorWorkloadRow) Utilization() float64 {
	capacity := r.MaxStudents
	if capacity <= 0 {
		capacity = DefaultMaxStudents
	}
	return float64(r.AssignedCount) / float64(capacity) * 100
}

// MissionSummaryMetrics aggregates headline numbers for one mission.
type MissionSummaryMetrics struct {
	MissionID            string `db:"mission_id" json:"mission_id"`
	MissionName          string `db:"mission_name" json:"mission_name"`
	StudentCount         int    `db:"student_count" json:"student_count"`
	MentorCount          int    `db:"mentor_count" json:"mentor_count"`
	GroupCount           int    `db:"group_count" json:"group_count"`
	AssignmentCount      int    `db:"assignment_count" json:"assignment_count"`
	PublishedAssignments int    `db:"published_assignments" json:"published_assignments"`
	CompletionCount      int    `db:"completion_count" json:"completion_count"`
}
