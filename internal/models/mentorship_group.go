package models

import (
	"time"

	"github.com/lib/pq"
)

// MentorshipGroup is a named subset of a mission's mentors and students
// for group-based mentoring. Group names are unique within a mission.
type MentorshipGroup struct {
	ID          string         `db:"id" json:"id"`
	MissionID   string         `db:"mission_id" json:"mission_id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	MentorIDs   pq.StringArray `db:"mentor_ids" json:"mentor_ids"`
	CreatedBy   string         `db:"created_by" json:"created_by"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// MentorshipGroupDetail enriches a group with its member students.
type MentorshipGroupDetail struct {
	MentorshipGroup
	Students []MissionStudent `json:"students"`
}
