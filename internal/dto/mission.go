package dto

// CreateMissionRequest payload for creating a mission.
type CreateMissionRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Batch       string `json:"batch"`
	Semester    string `json:"semester"`
}

// UpdateMissionRequest payload for editing a mission.
type UpdateMissionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Batch       string `json:"batch"`
	Semester    string `json:"semester"`
}

// EnrollStudentsRequest adds students to a mission roster.
type EnrollStudentsRequest struct {
	StudentIDs []string `json:"studentIds" validate:"required,min=1"`
}
