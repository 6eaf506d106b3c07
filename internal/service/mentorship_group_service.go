package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/mission-hub-api/internal/dto"
	"github.com/noah-isme/mission-hub-api/internal/models"
	appErrors "github.com/noah-isme/mission-hub-api/pkg/errors"
)

type mentorshipGroupRepository interface {
	ListByMission(ctx context.Context, missionID string) ([]models.MentorshipGroup, error)
	FindByID(ctx context.Context, id string) (*models.MentorshipGroup, error)
	ExistsByName(ctx context.Context, missionID, name, excludeID string) (bool, error)
	Create(ctx context.Context, group *models.MentorshipGroup) error
	Update(ctx context.Context, group *models.MentorshipGroup) error
	Delete(ctx context.Context, id string) error
}

type groupMissionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Mission, error)
	ClearGroupFromStudents(ctx context.Context, missionID, groupID string) (int, error)
	ClearGroupFromStudent(ctx context.Context, missionID, groupID, studentID string) error
	AssignGroupToStudent(ctx context.Context, missionID, groupID, studentID, assignedBy string) error
	ListStudentsByGroup(ctx context.Context, missionID, groupID string) ([]models.MissionStudent, error)
}

type groupMentorChecker interface {
	ExistsForMission(ctx context.Context, missionID, mentorID string) (bool, error)
}

// MentorshipGroupService manages named mentor/student groups within a
// mission. Group deletion is best effort about back-references: the group
// row goes away and affiliated students are cleared afterwards.
type MentorshipGroupService struct {
	repo      mentorshipGroupRepository
	missions  groupMissionRepository
	mentors   groupMentorChecker
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMentorshipGroupService constructs a MentorshipGroupService instance.
func NewMentorshipGroupService(repo mentorshipGroupRepository, missions groupMissionRepository, mentors groupMentorChecker, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *MentorshipGroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MentorshipGroupService{repo: repo, missions: missions, mentors: mentors, audit: audit, validator: validate, logger: logger}
}

// ListByMission returns all groups of a mission.
func (s *MentorshipGroupService) ListByMission(ctx context.Context, missionID string) ([]models.MentorshipGroup, error) {
	if _, err := s.missions.FindByID(ctx, missionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mission")
	}
	groups, err := s.repo.ListByMission(ctx, missionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list mentorship groups")
	}
	return groups, nil
}

// Get fetches a group and its member students.
func (s *MentorshipGroupService) Get(ctx context.Context, id string) (*models.MentorshipGroupDetail, error) {
	group, err := s.findGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	students, err := s.missions.ListStudentsByGroup(ctx, group.MissionID, group.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list group students")
	}
	return &models.MentorshipGroupDetail{MentorshipGroup: *group, Students: students}, nil
}

// Create registers a group. The name must be unique within the mission by
// exact match, and every listed mentor must already hold a mentor binding
// for the mission.
func (s *MentorshipGroupService) Create(ctx context.Context, req dto.CreateMentorshipGroupRequest, caller *models.JWTClaims) (*models.MentorshipGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}
	if _, err := s.missions.FindByID(ctx, req.MissionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mission")
	}

	taken, err := s.repo.ExistsByName(ctx, req.MissionID, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group name")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("group name %q already exists in this mission", req.Name))
	}

	if err := s.checkMentors(ctx, req.MissionID, req.MentorIDs); err != nil {
		return nil, err
	}

	group := &models.MentorshipGroup{
		MissionID:   req.MissionID,
		Name:        req.Name,
		Description: req.Description,
		MentorIDs:   pq.StringArray(req.MentorIDs),
	}
	if caller != nil {
		group.CreatedBy = caller.UserID
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create mentorship group")
	}

	assignedBy := ""
	if caller != nil {
		assignedBy = caller.UserID
	}
	for _, studentID := range req.StudentIDs {
		if err := s.missions.AssignGroupToStudent(ctx, req.MissionID, group.ID, studentID, assignedBy); err != nil {
			s.logger.Warn("failed to attach student to new group",
				zap.String("group_id", group.ID),
				zap.String("student_id", studentID),
				zap.Error(err))
		}
	}

	s.recordGroupAudit(ctx, caller, group.ID)
	return group, nil
}

// Update edits a group's name, description and mentor list under the same
// uniqueness and mentor-binding rules as creation.
func (s *MentorshipGroupService) Update(ctx context.Context, id string, req dto.UpdateMentorshipGroupRequest, caller *models.JWTClaims) (*models.MentorshipGroup, error) {
	group, err := s.findGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" && req.Name != group.Name {
		taken, err := s.repo.ExistsByName(ctx, group.MissionID, req.Name, group.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group name")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("group name %q already exists in this mission", req.Name))
		}
		group.Name = req.Name
	}
	if req.Description != "" {
		group.Description = req.Description
	}
	if req.MentorIDs != nil {
		if len(req.MentorIDs) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a group needs at least one mentor")
		}
		if err := s.checkMentors(ctx, group.MissionID, req.MentorIDs); err != nil {
			return nil, err
		}
		group.MentorIDs = pq.StringArray(req.MentorIDs)
	}

	if err := s.repo.Update(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update mentorship group")
	}
	s.recordGroupAudit(ctx, caller, group.ID)
	return group, nil
}

// Delete removes a group and clears the group reference from every
// affiliated student of the mission.
func (s *MentorshipGroupService) Delete(ctx context.Context, id string, caller *models.JWTClaims) error {
	group, err := s.findGroup(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "mentorship group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete mentorship group")
	}

	cleared, err := s.missions.ClearGroupFromStudents(ctx, group.MissionID, group.ID)
	if err != nil {
		s.logger.Warn("failed to clear group reference from students",
			zap.String("group_id", group.ID),
			zap.Error(err))
	} else if cleared > 0 {
		s.logger.Info("cleared group reference from students",
			zap.String("group_id", group.ID),
			zap.Int("students", cleared))
	}

	s.recordGroupAudit(ctx, caller, group.ID)
	return nil
}

// RemoveStudent detaches one student from the group without deleting the
// group itself.
func (s *MentorshipGroupService) RemoveStudent(ctx context.Context, id, studentID string, caller *models.JWTClaims) error {
	group, err := s.findGroup(ctx, id)
	if err != nil {
		return err
	}
	if err := s.missions.ClearGroupFromStudent(ctx, group.MissionID, group.ID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student is not a member of this group")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student from group")
	}
	s.recordGroupAudit(ctx, caller, group.ID)
	return nil
}

// AddStudent attaches a mission student to the group.
func (s *MentorshipGroupService) AddStudent(ctx context.Context, id, studentID string, caller *models.JWTClaims) error {
	group, err := s.findGroup(ctx, id)
	if err != nil {
		return err
	}
	assignedBy := ""
	if caller != nil {
		assignedBy = caller.UserID
	}
	if err := s.missions.AssignGroupToStudent(ctx, group.MissionID, group.ID, studentID, assignedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this mission")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add student to group")
	}
	s.recordGroupAudit(ctx, caller, group.ID)
	return nil
}

func (s *MentorshipGroupService) findGroup(ctx context.Context, id string) (*models.MentorshipGroup, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mentorship group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mentorship group")
	}
	return group, nil
}

func (s *MentorshipGroupService) checkMentors(ctx context.Context, missionID string, mentorIDs []string) error {
	for _, mentorID := range mentorIDs {
		exists, err := s.mentors.ExistsForMission(ctx, missionID, mentorID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify group mentors")
		}
		if !exists {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("no mentors available: %s has no mentor record for this mission", mentorID))
		}
	}
	return nil
}

func (s *MentorshipGroupService) recordGroupAudit(ctx context.Context, caller *models.JWTClaims, groupID string) {
	if caller == nil || s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &caller.UserID,
		Action:     models.AuditActionGroupChange,
		Resource:   "mentorship_group",
		ResourceID: &groupID,
	}); err != nil {
		s.logger.Warn("failed to record group audit log", zap.Error(err))
	}
}
