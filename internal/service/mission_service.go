package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/mission-hub-api/internal/dto"
	"github.com/noah-isme/mission-hub-api/internal/models"
	appErrors "github.com/noah-isme/mission-hub-api/pkg/errors"
)

type missionRepository interface {
	List(ctx context.Context, filter models.MissionFilter) ([]models.Mission, int, error)
	FindByID(ctx context.Context, id string) (*models.Mission, error)
	Create(ctx context.Context, mission *models.Mission) error
	Update(ctx context.Context, mission *models.Mission) error
	Archive(ctx context.Context, id string) error
	ListStudents(ctx context.Context, missionID string) ([]models.MissionStudent, error)
	FindStudent(ctx context.Context, missionID, studentID string) (*models.MissionStudent, error)
	AddStudent(ctx context.Context, student *models.MissionStudent) error
	RemoveStudent(ctx context.Context, missionID, studentID string) error
}

type rosterMentorLister interface {
	ListByMission(ctx context.Context, missionID string) ([]models.MissionMentor, error)
}

// MissionService manages cohort learning programs and their rosters.
type MissionService struct {
	repo      missionRepository
	mentors   rosterMentorLister
	cache     *CacheService
	rosterTTL time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMissionService constructs a MissionService instance.
func NewMissionService(repo missionRepository, mentors rosterMentorLister, cache *CacheService, rosterTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *MissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if rosterTTL <= 0 {
		rosterTTL = 5 * time.Minute
	}
	return &MissionService{repo: repo, mentors: mentors, cache: cache, rosterTTL: rosterTTL, validator: validate, logger: logger}
}

func rosterCacheKey(missionID string) string {
	return fmt.Sprintf("mission:%s:roster", missionID)
}

// List returns missions matching the filter with a total count.
func (s *MissionService) List(ctx context.Context, filter models.MissionFilter) ([]models.Mission, int, error) {
	missions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list missions")
	}
	return missions, total, nil
}

// Get fetches a single mission.
func (s *MissionService) Get(ctx context.Context, id string) (*models.Mission, error) {
	mission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mission")
	}
	return mission, nil
}

// Create registers a new mission in draft status.
func (s *MissionService) Create(ctx context.Context, req dto.CreateMissionRequest, caller *models.JWTClaims) (*models.Mission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mission payload")
	}
	mission := &models.Mission{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Batch:       req.Batch,
		Semester:    req.Semester,
		Status:      models.MissionStatusDraft,
	}
	if caller != nil {
		mission.CreatedBy = caller.UserID
	}
	if err := s.repo.Create(ctx, mission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create mission")
	}
	return mission, nil
}

// Update edits a mission's descriptive fields and status.
func (s *MissionService) Update(ctx context.Context, id string, req dto.UpdateMissionRequest) (*models.Mission, error) {
	mission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		mission.Name = req.Name
	}
	if req.Description != "" {
		mission.Description = req.Description
	}
	if req.Batch != "" {
		mission.Batch = req.Batch
	}
	if req.Semester != "" {
		mission.Semester = req.Semester
	}
	if req.Status != "" {
		switch models.MissionStatus(req.Status) {
		case models.MissionStatusDraft, models.MissionStatusActive, models.MissionStatusCompleted, models.MissionStatusArchived:
			mission.Status = models.MissionStatus(req.Status)
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown mission status %q", req.Status))
		}
	}
	if err := s.repo.Update(ctx, mission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update mission")
	}
	s.invalidateRoster(ctx, id)
	return mission, nil
}

// Archive moves a mission to archived status.
func (s *MissionService) Archive(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Archive(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive mission")
	}
	s.invalidateRoster(ctx, id)
	return nil
}

// Roster returns the mission together with its students and mentors. The
// assembled roster is cached; any enrollment or mentor change invalidates it.
func (s *MissionService) Roster(ctx context.Context, id string) (*models.MissionRoster, bool, error) {
	var cached models.MissionRoster
	if hit, err := s.cache.Get(ctx, rosterCacheKey(id), &cached); err == nil && hit {
		return &cached, true, nil
	}

	mission, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	students, err := s.repo.ListStudents(ctx, id)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list mission students")
	}
	mentors, err := s.mentors.ListByMission(ctx, id)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list mission mentors")
	}

	roster := &models.MissionRoster{Mission: *mission, Students: students, Mentors: mentors}
	if err := s.cache.Set(ctx, rosterCacheKey(id), roster, s.rosterTTL); err != nil {
		s.logger.Warn("failed to cache mission roster", zap.String("mission_id", id), zap.Error(err))
	}
	return roster, false, nil
}

// EnrollStudents adds students to the mission roster. Students already on
// the roster are skipped.
func (s *MissionService) EnrollStudents(ctx context.Context, id string, req dto.EnrollStudentsRequest) ([]models.MissionStudent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	enrolled := make([]models.MissionStudent, 0, len(req.StudentIDs))
	for _, studentID := range req.StudentIDs {
		if _, err := s.repo.FindStudent(ctx, id, studentID); err == nil {
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check mission roster")
		}
		student := &models.MissionStudent{
			ID:        uuid.NewString(),
			MissionID: id,
			StudentID: studentID,
			Status:    "ENROLLED",
			JoinedAt:  time.Now().UTC(),
		}
		if err := s.repo.AddStudent(ctx, student); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
		}
		enrolled = append(enrolled, *student)
	}

	s.invalidateRoster(ctx, id)
	return enrolled, nil
}

// RemoveStudent drops a student from the mission roster.
func (s *MissionService) RemoveStudent(ctx context.Context, id, studentID string) error {
	if err := s.repo.RemoveStudent(ctx, id, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this mission")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove mission student")
	}
	s.invalidateRoster(ctx, id)
	return nil
}

// InvalidateRoster drops the cached roster after mentor or group changes
// made outside this service.
func (s *MissionService) InvalidateRoster(ctx context.Context, id string) {
	s.invalidateRoster(ctx, id)
}

func (s *MissionService) invalidateRoster(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, rosterCacheKey(id)); err != nil {
		s.logger.Warn("failed to invalidate roster cache", zap.String("mission_id", id), zap.Error(err))
	}
}
