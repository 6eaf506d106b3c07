package dto

// AssignMentorsRequest drives the capacity allocator. With DistributeEvenly
// set, students are split into contiguous slices across the mentors in order;
// otherwise every mentor receives the full student list.
type AssignMentorsRequest struct {
	MissionID        string   `json:"missionId" validate:"required"`
	MentorIDs        []string `json:"mentorIds" validate:"required,min=1"`
	StudentIDs       []string `json:"studentIds"`
	DistributeEvenly *bool    `json:"distributeEvenly"`
	SetPrimary       bool     `json:"setPrimary"`
}

// ReassignStudentsRequest moves students between two mentors of a mission.
type ReassignStudentsRequest struct {
	MissionID    string   `json:"missionId" validate:"required"`
	FromMentorID string   `json:"fromMentorId" validate:"required"`
	ToMentorID   string   `json:"toMentorId" validate:"required"`
	StudentIDs   []string `json:"studentIds" validate:"required,min=1"`
}

// UpdateMentorProfileRequest edits a mission mentor's descriptive fields.
type UpdateMentorProfileRequest struct {
	Role           string `json:"role"`
	Specialization string `json:"specialization"`
}

// UpdateMentorStatusRequest changes a mentor's availability status.
type UpdateMentorStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE INACTIVE OVERLOADED"`
}

// UpdateMentorCapacityRequest changes a mentor's maximum student load.
type UpdateMentorCapacityRequest struct {
	MaxStudents int `json:"maxStudents" validate:"required,min=1"`
}

// BulkMentorOperationRequest dispatches one named bulk operation over a set
// of mission mentors.
type BulkMentorOperationRequest struct {
	Operation string                `json:"operation" validate:"required"`
	MissionID string                `json:"missionId" validate:"required"`
	Items     []BulkMentorOperation `json:"items" validate:"required,min=1"`
}

// BulkMentorOperation is one item of a bulk mentor request. Fields are
// interpreted per operation type.
type BulkMentorOperation struct {
	MentorID       string   `json:"mentorId"`
	FromMentorID   string   `json:"fromMentorId"`
	ToMentorID     string   `json:"toMentorId"`
	StudentIDs     []string `json:"studentIds"`
	Status         string   `json:"status"`
	MaxStudents    int      `json:"maxStudents"`
	Role           string   `json:"role"`
	Specialization string   `json:"specialization"`
}

// BulkMentorOperationResult reports the per-item outcome of a bulk request.
type BulkMentorOperationResult struct {
	MentorID string `json:"mentorId"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}
