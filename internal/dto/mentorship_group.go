package dto

// CreateMentorshipGroupRequest payload for creating a group within a mission.
type CreateMentorshipGroupRequest struct {
	MissionID   string   `json:"missionId" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	MentorIDs   []string `json:"mentorIds" validate:"required,min=1"`
	StudentIDs  []string `json:"studentIds"`
}

// UpdateMentorshipGroupRequest payload for editing a group.
type UpdateMentorshipGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MentorIDs   []string `json:"mentorIds"`
}
