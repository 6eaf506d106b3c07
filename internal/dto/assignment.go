package dto

// CreateAssignmentRequest payload for creating an assignment.
type CreateAssignmentRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	MissionID   string `json:"missionId"`
}

// UpdateAssignmentRequest payload for editing an assignment.
type UpdateAssignmentRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// AddEmailsRequest carries a raw bulk email submission.
type AddEmailsRequest struct {
	EmailList []string `json:"emailList"`
}

// AddEmailsResponse summarizes a processed bulk email submission.
type AddEmailsResponse struct {
	ProcessedCount int      `json:"processedCount"`
	SuccessCount   int      `json:"successCount"`
	ErrorCount     int      `json:"errorCount"`
	DuplicateCount int      `json:"duplicateCount"`
	NewEmails      []string `json:"newEmails"`
}
