package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	internalmiddleware "github.com/noah-isme/mission-hub-api/internal/middleware"
	"github.com/noah-isme/mission-hub-api/internal/models"
	"github.com/noah-isme/mission-hub-api/internal/service"
	"github.com/noah-isme/mission-hub-api/pkg/jobs"
)

func TestProtectedRoutesIntegration(t *testing.T) {
	router := buildProtectedRouter(t)

	t.Run("add emails success", func(t *testing.T) {
		body := `{"emailList":["alice@example.com","bob@example.com","broken"]}`
		req, _ := http.NewRequest(http.MethodPost, "/assignments/asg-1/add-emails", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleMentor))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"successCount":2`)
		require.Contains(t, resp.Body.String(), `"errorCount":1`)
	})

	t.Run("add emails unauthorized", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/assignments/asg-1/add-emails", bytes.NewBufferString(`{"emailList":["a@b.com"]}`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("add emails forbidden for students", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/assignments/asg-1/add-emails", bytes.NewBufferString(`{"emailList":["a@b.com"]}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleStudent))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("assign mentors success", func(t *testing.T) {
		body := `{"missionId":"mission-1","mentorIds":["mentor-1"],"studentIds":["stu-1","stu-2"],"setPrimary":true}`
		req, _ := http.NewRequest(http.MethodPost, "/v2/mission-mentors", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"mentor-1"`)
	})

	t.Run("assign mentors forbidden for mentors", func(t *testing.T) {
		body := `{"missionId":"mission-1","mentorIds":["mentor-1"],"studentIds":["stu-1"]}`
		req, _ := http.NewRequest(http.MethodPost, "/v2/mission-mentors", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleMentor))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("bulk status update success", func(t *testing.T) {
		body := `{"operation":"bulk_status_update","missionId":"mission-1","items":[{"mentorId":"mentor-1","status":"INACTIVE"}]}`
		req, _ := http.NewRequest(http.MethodPost, "/mission-mentors/bulk-operations", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleSRE))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"success":true`)
	})

	t.Run("group delete success", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, "/v2/mentorship-groups/grp-1", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusNoContent, resp.Code)
	})

	t.Run("group delete with student removes membership only", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, "/v2/mentorship-groups/grp-1?student_id=stu-1", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusNoContent, resp.Code)
	})

	t.Run("send invitations success", func(t *testing.T) {
		body := `{"studentIds":["stu-1"]}`
		req, _ := http.NewRequest(http.MethodPost, "/students/send-invitations", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleManager))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"stu-1"`)
	})

	t.Run("send invitations forbidden for mentors", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/students/send-invitations", bytes.NewBufferString(`{"studentIds":["stu-1"]}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleMentor))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func buildProtectedRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{
				UserID: "test-user",
				Role:   models.UserRole(role),
			})
		}
		c.Next()
	})

	assignmentSvc := service.NewAssignmentService(newAssignmentRepoIntegrationStub(), auditIntegrationStub{}, nil, nil, nil)
	mentorSvc := service.NewMissionMentorService(newMentorRepoIntegrationStub(), mentorMissionIntegrationStub{}, auditIntegrationStub{}, nil, nil)
	groupSvc := service.NewMentorshipGroupService(newGroupRepoIntegrationStub(), groupMissionIntegrationStub{}, groupMentorCheckerStub{}, auditIntegrationStub{}, nil, nil)
	studentSvc := service.NewStudentService(newStudentUserRepoIntegrationStub(), &invitationRepoIntegrationStub{}, &invitationQueueIntegrationStub{}, nil, time.Hour, nil, nil)

	assignmentHandler := NewAssignmentHandler(assignmentSvc)
	mentorHandler := NewMissionMentorHandler(mentorSvc)
	groupHandler := NewMentorshipGroupHandler(groupSvc)
	studentHandler := NewStudentHandler(studentSvc)

	router.POST("/assignments/:id/add-emails", internalmiddleware.RequirePermission(internalmiddleware.PermAssignmentSubmit), assignmentHandler.AddEmails)
	router.POST("/v2/mission-mentors", internalmiddleware.RequirePermission(internalmiddleware.PermMentorManage), mentorHandler.Assign)
	router.POST("/mission-mentors/bulk-operations", internalmiddleware.RequirePermission(internalmiddleware.PermMentorManage), mentorHandler.BulkOperations)
	router.DELETE("/v2/mentorship-groups/:id", internalmiddleware.RequirePermission(internalmiddleware.PermGroupManage), groupHandler.Delete)
	router.POST("/students/send-invitations", internalmiddleware.RequirePermission(internalmiddleware.PermStudentInvite), studentHandler.SendInvitations)

	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type auditIntegrationStub struct{}

func (auditIntegrationStub) CreateAuditLog(context.Context, *models.AuditLog) error { return nil }

type assignmentRepoIntegrationStub struct {
	assignment models.Assignment
}

func newAssignmentRepoIntegrationStub() *assignmentRepoIntegrationStub {
	published := time.Now().Add(-time.Hour)
	return &assignmentRepoIntegrationStub{
		assignment: models.Assignment{
			ID:          "asg-1",
			Title:       "Week 1 Lab",
			PublishedAt: &published,
			CreatedBy:   "admin-1",
		},
	}
}

func (s *assignmentRepoIntegrationStub) List(context.Context, models.AssignmentFilter) ([]models.Assignment, int, error) {
	return []models.Assignment{s.assignment}, 1, nil
}

func (s *assignmentRepoIntegrationStub) FindByID(_ context.Context, id string) (*models.Assignment, error) {
	if id != s.assignment.ID {
		return nil, sql.ErrNoRows
	}
	copied := s.assignment
	return &copied, nil
}

func (s *assignmentRepoIntegrationStub) Create(context.Context, *models.Assignment) error { return nil }
func (s *assignmentRepoIntegrationStub) Update(context.Context, *models.Assignment) error { return nil }
func (s *assignmentRepoIntegrationStub) Publish(context.Context, string, time.Time) error { return nil }
func (s *assignmentRepoIntegrationStub) Delete(context.Context, string) error             { return nil }

func (s *assignmentRepoIntegrationStub) ListCompletions(context.Context, string) ([]models.AssignmentCompletion, error) {
	return nil, nil
}

func (s *assignmentRepoIntegrationStub) RecordSubmission(context.Context, []models.AssignmentCompletion, *models.EmailSubmission) error {
	return nil
}

func (s *assignmentRepoIntegrationStub) ListSubmissions(context.Context, string) ([]models.EmailSubmission, error) {
	return nil, nil
}

type mentorRepoIntegrationStub struct {
	records map[string]*models.MissionMentor
}

func newMentorRepoIntegrationStub() *mentorRepoIntegrationStub {
	return &mentorRepoIntegrationStub{
		records: map[string]*models.MissionMentor{
			"mm-1": {
				ID:               "mm-1",
				MissionID:        "mission-1",
				MentorID:         "mentor-1",
				Status:           models.MentorStatusActive,
				MaxStudents:      models.DefaultMaxStudents,
				AssignedStudents: pq.StringArray{},
			},
		},
	}
}

func (s *mentorRepoIntegrationStub) ListByMission(context.Context, string) ([]models.MissionMentor, error) {
	mentors := make([]models.MissionMentor, 0, len(s.records))
	for _, m := range s.records {
		mentors = append(mentors, *m)
	}
	return mentors, nil
}

func (s *mentorRepoIntegrationStub) FindByID(_ context.Context, id string) (*models.MissionMentor, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *record
	return &copied, nil
}

func (s *mentorRepoIntegrationStub) FindByMissionAndMentor(_ context.Context, missionID, mentorID string) (*models.MissionMentor, error) {
	for _, record := range s.records {
		if record.MissionID == missionID && record.MentorID == mentorID {
			copied := *record
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *mentorRepoIntegrationStub) ExistsForMission(_ context.Context, missionID, mentorID string) (bool, error) {
	_, err := s.FindByMissionAndMentor(context.Background(), missionID, mentorID)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (s *mentorRepoIntegrationStub) Create(_ context.Context, mentor *models.MissionMentor) error {
	if mentor.ID == "" {
		mentor.ID = "mm-" + mentor.MentorID
	}
	copied := *mentor
	s.records[mentor.ID] = &copied
	return nil
}

func (s *mentorRepoIntegrationStub) UpdateProfile(_ context.Context, id, role, specialization string, status models.MentorStatus) error {
	record, ok := s.records[id]
	if !ok {
		return sql.ErrNoRows
	}
	if role != "" {
		record.Role = role
	}
	if specialization != "" {
		record.Specialization = specialization
	}
	if status != "" {
		record.Status = status
	}
	return nil
}

func (s *mentorRepoIntegrationStub) UpdateStatus(_ context.Context, id string, status models.MentorStatus) error {
	record, ok := s.records[id]
	if !ok {
		return sql.ErrNoRows
	}
	record.Status = status
	return nil
}

func (s *mentorRepoIntegrationStub) UpdateCapacity(_ context.Context, id string, maxStudents int) error {
	record, ok := s.records[id]
	if !ok {
		return sql.ErrNoRows
	}
	if record.CurrentWorkload > maxStudents {
		return sql.ErrNoRows
	}
	record.MaxStudents = maxStudents
	return nil
}

func (s *mentorRepoIntegrationStub) SetAssignedStudents(_ context.Context, id string, studentIDs []string) error {
	record, ok := s.records[id]
	if !ok {
		return sql.ErrNoRows
	}
	if len(studentIDs) > record.MaxStudents {
		return sql.ErrNoRows
	}
	record.AssignedStudents = append(pq.StringArray{}, studentIDs...)
	record.CurrentWorkload = len(studentIDs)
	return nil
}

func (s *mentorRepoIntegrationStub) TransferStudents(ctx context.Context, fromID string, fromStudents []string, toID string, toStudents []string) error {
	if err := s.SetAssignedStudents(ctx, toID, toStudents); err != nil {
		return err
	}
	return s.SetAssignedStudents(ctx, fromID, fromStudents)
}

func (s *mentorRepoIntegrationStub) Delete(_ context.Context, id string) error {
	record, ok := s.records[id]
	if !ok || record.CurrentWorkload > 0 {
		return sql.ErrNoRows
	}
	delete(s.records, id)
	return nil
}

type mentorMissionIntegrationStub struct{}

func (mentorMissionIntegrationStub) FindByID(_ context.Context, id string) (*models.Mission, error) {
	if id != "mission-1" {
		return nil, sql.ErrNoRows
	}
	return &models.Mission{ID: id, Name: "Batch 12 Bootcamp", Status: models.MissionStatusActive}, nil
}

func (mentorMissionIntegrationStub) AddStudentMentor(context.Context, string, string, string, bool) error {
	return nil
}

func (mentorMissionIntegrationStub) SwapStudentMentor(context.Context, string, string, string, string) error {
	return nil
}

type groupRepoIntegrationStub struct {
	groups map[string]*models.MentorshipGroup
}

func newGroupRepoIntegrationStub() *groupRepoIntegrationStub {
	return &groupRepoIntegrationStub{
		groups: map[string]*models.MentorshipGroup{
			"grp-1": {
				ID:        "grp-1",
				MissionID: "mission-1",
				Name:      "Backend Squad",
				MentorIDs: pq.StringArray{"mentor-1"},
				CreatedBy: "admin-1",
			},
		},
	}
}

func (s *groupRepoIntegrationStub) ListByMission(context.Context, string) ([]models.MentorshipGroup, error) {
	groups := make([]models.MentorshipGroup, 0, len(s.groups))
	for _, g := range s.groups {
		groups = append(groups, *g)
	}
	return groups, nil
}

func (s *groupRepoIntegrationStub) FindByID(_ context.Context, id string) (*models.MentorshipGroup, error) {
	group, ok := s.groups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *group
	return &copied, nil
}

func (s *groupRepoIntegrationStub) ExistsByName(context.Context, string, string, string) (bool, error) {
	return false, nil
}

func (s *groupRepoIntegrationStub) Create(_ context.Context, group *models.MentorshipGroup) error {
	copied := *group
	s.groups[group.ID] = &copied
	return nil
}

func (s *groupRepoIntegrationStub) Update(_ context.Context, group *models.MentorshipGroup) error {
	copied := *group
	s.groups[group.ID] = &copied
	return nil
}

func (s *groupRepoIntegrationStub) Delete(_ context.Context, id string) error {
	if _, ok := s.groups[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.groups, id)
	return nil
}

type groupMissionIntegrationStub struct{}

func (groupMissionIntegrationStub) FindByID(_ context.Context, id string) (*models.Mission, error) {
	return &models.Mission{ID: id, Status: models.MissionStatusActive}, nil
}

func (groupMissionIntegrationStub) ClearGroupFromStudents(context.Context, string, string) (int, error) {
	return 1, nil
}

func (groupMissionIntegrationStub) ClearGroupFromStudent(context.Context, string, string, string) error {
	return nil
}

func (groupMissionIntegrationStub) AssignGroupToStudent(context.Context, string, string, string, string) error {
	return nil
}

func (groupMissionIntegrationStub) ListStudentsByGroup(context.Context, string, string) ([]models.MissionStudent, error) {
	return nil, nil
}

type groupMentorCheckerStub struct{}

func (groupMentorCheckerStub) ExistsForMission(context.Context, string, string) (bool, error) {
	return true, nil
}

type studentUserRepoIntegrationStub struct {
	students map[string]models.User
}

func newStudentUserRepoIntegrationStub() *studentUserRepoIntegrationStub {
	return &studentUserRepoIntegrationStub{
		students: map[string]models.User{
			"stu-1": {ID: "stu-1", Email: "alice@example.com", FullName: "Alice Tan", Role: models.RoleStudent},
		},
	}
}

func (s *studentUserRepoIntegrationStub) List(context.Context, models.UserFilter) ([]models.User, int, error) {
	return nil, 0, nil
}

func (s *studentUserRepoIntegrationStub) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

func (s *studentUserRepoIntegrationStub) FindByIDs(_ context.Context, ids []string) ([]models.User, error) {
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := s.students[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (s *studentUserRepoIntegrationStub) FindByEmail(context.Context, string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func (s *studentUserRepoIntegrationStub) Create(_ context.Context, user *models.User) error {
	s.students[user.ID] = *user
	return nil
}

func (s *studentUserRepoIntegrationStub) CountStudentsByYear(context.Context, string) (int, error) {
	return len(s.students), nil
}

func (s *studentUserRepoIntegrationStub) SetTemporaryPassword(context.Context, string, string, time.Time) error {
	return nil
}

func (s *studentUserRepoIntegrationStub) CreateAuditLog(context.Context, *models.AuditLog) error {
	return nil
}

type invitationRepoIntegrationStub struct {
	created []models.Invitation
}

func (s *invitationRepoIntegrationStub) ListByUser(context.Context, string) ([]models.Invitation, error) {
	return s.created, nil
}

func (s *invitationRepoIntegrationStub) Create(_ context.Context, invitation *models.Invitation) error {
	s.created = append(s.created, *invitation)
	return nil
}

func (s *invitationRepoIntegrationStub) MarkSent(context.Context, string) error   { return nil }
func (s *invitationRepoIntegrationStub) MarkFailed(context.Context, string, string) error {
	return nil
}

type invitationQueueIntegrationStub struct {
	enqueued []jobs.Job
}

func (s *invitationQueueIntegrationStub) Enqueue(job jobs.Job) error {
	s.enqueued = append(s.enqueued, job)
	return nil
}
