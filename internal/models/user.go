package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleManager   UserRole = "MANAGER"
	RoleDeveloper UserRole = "DEVELOPER"
	RoleSRE       UserRole = "SRE"
	RoleMentor    UserRole = "MENTOR"
	RoleStudent   UserRole = "STUDENT"
)

// User represents an application user stored in the users table.
// Students additionally carry a generated student ID and the temporary
// credential fields driving the invitation flow.
type User struct {
	ID                string     `db:"id" json:"id"`
	Email             string     `db:"email" json:"email"`
	PasswordHash      string     `db:"password_hash" json:"-"`
	FullName          string     `db:"full_name" json:"full_name"`
	Role              UserRole   `db:"role" json:"role"`
	Active            bool       `db:"active" json:"active"`
	StudentID         *string    `db:"student_id" json:"student_id,omitempty"`
	ProfileCompleted  bool       `db:"profile_completed" json:"profile_completed"`
	PasswordExpiresAt *time.Time `db:"password_expires_at" json:"password_expires_at,omitempty"`
	LastLogin         *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
