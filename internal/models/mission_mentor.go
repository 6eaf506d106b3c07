package models

import (
	"time"

	"github.com/lib/pq"
)

// MentorStatus reflects a mentor's availability within a mission.
type MentorStatus string

const (
	MentorStatusActive     MentorStatus = "ACTIVE"
	MentorStatusInactive   MentorStatus = "INACTIVE"
	MentorStatusOverloaded MentorStatus = "OVERLOADED"
)

// DefaultMaxStudents applies when an assignment record carries no explicit cap.
const DefaultMaxStudents = 10

// MissionMentor binds one mentor to one mission with a capacity and
// workload. CurrentWorkload must equal len(AssignedStudents); the row is
// deleted only when the workload is zero.
type MissionMentor struct {
	ID               string         `db:"id" json:"id"`
	MissionID        string         `db:"mission_id" json:"mission_id"`
	MentorID         string         `db:"mentor_id" json:"mentor_id"`
	Role             string         `db:"role" json:"role"`
	Specialization   string         `db:"specialization" json:"specialization"`
	AssignedStudents pq.StringArray `db:"assigned_students" json:"assigned_students"`
	CurrentWorkload  int            `db:"current_workload" json:"current_workload"`
	MaxStudents      int            `db:"max_students" json:"max_students"`
	Status           MentorStatus   `db:"status" json:"status"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// EffectiveMaxStudents resolves the capacity cap, falling back to the default.
func (m MissionMentor) EffectiveMaxStudents() int {
	if m.MaxStudents <= 0 {
		return DefaultMaxStudents
	}
	return m.MaxStudents
}

// MentorAssignmentResult reports the outcome of one mentor's slice in a
// bulk assignment. Bulk calls are not atomic across mentors; earlier
// successes stand even when a later mentor fails.
type MentorAssignmentResult struct {
	MentorID      string   `json:"mentor_id"`
	AssignedCount int      `json:"assigned_count"`
	StudentIDs    []string `json:"student_ids"`
	Error         string   `json:"error,omitempty"`
}
