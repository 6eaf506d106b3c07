package dto

// EnrollStudentRequest registers a student account.
type EnrollStudentRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required"`
}

// SendInvitationsRequest identifies students who should receive temporary
// credentials by email.
type SendInvitationsRequest struct {
	StudentIDs []string `json:"studentIds" validate:"required,min=1"`
}

// InvitationResult reports per-recipient delivery status.
type InvitationResult struct {
	StudentID string `json:"studentId"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}
