package models

import (
	"time"

	"github.com/lib/pq"
)

// MissionStatus reflects the lifecycle of a cohort learning program.
type MissionStatus string

const (
	MissionStatusDraft     MissionStatus = "DRAFT"
	MissionStatusActive    MissionStatus = "ACTIVE"
	MissionStatusCompleted MissionStatus = "COMPLETED"
	MissionStatusArchived  MissionStatus = "ARCHIVED"
)

// Mission is a cohort-scoped learning program with enrolled students and
// assigned mentors.
type Mission struct {
	ID          string        `db:"id" json:"id"`
	Name        string        `db:"name" json:"name"`
	Description string        `db:"description" json:"description"`
	Batch       string        `db:"batch" json:"batch"`
	Semester    string        `db:"semester" json:"semester"`
	Status      MissionStatus `db:"status" json:"status"`
	CreatedBy   string        `db:"created_by" json:"created_by"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// MissionStudent is a mission roster row. MentorIDs and PrimaryMentorID are
// denormalized from mission_mentors rows and must stay consistent with them.
type MissionStudent struct {
	ID                string         `db:"id" json:"id"`
	MissionID         string         `db:"mission_id" json:"mission_id"`
	StudentID         string         `db:"student_id" json:"student_id"`
	Status            string         `db:"status" json:"status"`
	Progress          int            `db:"progress" json:"progress"`
	MentorIDs         pq.StringArray `db:"mentor_ids" json:"mentor_ids"`
	PrimaryMentorID   *string        `db:"primary_mentor_id" json:"primary_mentor_id,omitempty"`
	MentorshipGroupID *string        `db:"mentorship_group_id" json:"mentorship_group_id,omitempty"`
	GroupAssignedAt   *time.Time     `db:"group_assigned_at" json:"group_assigned_at,omitempty"`
	GroupAssignedBy   *string        `db:"group_assigned_by" json:"group_assigned_by,omitempty"`
	JoinedAt          time.Time      `db:"joined_at" json:"joined_at"`
}

// MissionRoster bundles a mission with its students and mentors for the
// cached roster read.
type MissionRoster struct {
	Mission  Mission          `json:"mission"`
	Students []MissionStudent `json:"students"`
	Mentors  []MissionMentor  `json:"mentors"`
}

// MissionFilter captures listing criteria for missions.
type MissionFilter struct {
	Status   string
	Batch    string
	Search   string
	Page     int
	PageSize int
}
