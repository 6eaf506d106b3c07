package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mission-hub-api/internal/models"
)

// Permission names one guarded capability of the API.
type Permission string

const (
	PermUserManage       Permission = "user:manage"
	PermStudentEnroll    Permission = "student:enroll"
	PermStudentInvite    Permission = "student:invite"
	PermStudentRead      Permission = "student:read"
	PermAssignmentManage Permission = "assignment:manage"
	PermAssignmentSubmit Permission = "assignment:submit"
	PermAssignmentRead   Permission = "assignment:read"
	PermMissionManage    Permission = "mission:manage"
	PermMissionRead      Permission = "mission:read"
	PermMentorManage     Permission = "mentor:manage"
	PermGroupManage      Permission = "group:manage"
	PermReportExport     Permission = "report:export"
)

// permissionMatrix is the single source of truth for which roles hold which
// permission. Route handlers never list roles directly.
var permissionMatrix = map[Permission][]models.UserRole{
	PermUserManage:       {models.RoleAdmin},
	PermStudentEnroll:    {models.RoleAdmin, models.RoleManager},
	PermStudentInvite:    {models.RoleAdmin, models.RoleManager},
	PermStudentRead:      {models.RoleAdmin, models.RoleManager, models.RoleDeveloper, models.RoleSRE, models.RoleMentor},
	PermAssignmentManage: {models.RoleAdmin, models.RoleManager},
	PermAssignmentSubmit: {models.RoleAdmin, models.RoleManager, models.RoleMentor},
	PermAssignmentRead:   {models.RoleAdmin, models.RoleManager, models.RoleDeveloper, models.RoleSRE, models.RoleMentor, models.RoleStudent},
	PermMissionManage:    {models.RoleAdmin, models.RoleManager},
	PermMissionRead:      {models.RoleAdmin, models.RoleManager, models.RoleDeveloper, models.RoleSRE, models.RoleMentor, models.RoleStudent},
	PermMentorManage:     {models.RoleAdmin, models.RoleSRE, models.RoleDeveloper},
	PermGroupManage:      {models.RoleAdmin, models.RoleManager, models.RoleMentor},
	PermReportExport:     {models.RoleAdmin, models.RoleManager, models.RoleSRE},
}

// RolesFor returns the roles holding a permission.
func RolesFor(p Permission) []models.UserRole {
	return permissionMatrix[p]
}

// RequirePermission guards a route with the permission matrix.
func RequirePermission(p Permission) gin.HandlerFunc {
	return RequireRoles(permissionMatrix[p]...)
}
