package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/mission-hub-api/internal/dto"
	"github.com/noah-isme/mission-hub-api/internal/models"
	appErrors "github.com/noah-isme/mission-hub-api/pkg/errors"
)

type missionMentorRepository interface {
	ListByMission(ctx context.Context, missionID string) ([]models.MissionMentor, error)
	FindByID(ctx context.Context, id string) (*models.MissionMentor, error)
	FindByMissionAndMentor(ctx context.Context, missionID, mentorID string) (*models.MissionMentor, error)
	ExistsForMission(ctx context.Context, missionID, mentorID string) (bool, error)
	Create(ctx context.Context, mentor *models.MissionMentor) error
	UpdateProfile(ctx context.Context, id, role, specialization string, status models.MentorStatus) error
	UpdateStatus(ctx context.Context, id string, status models.MentorStatus) error
	UpdateCapacity(ctx context.Context, id string, maxStudents int) error
	SetAssignedStudents(ctx context.Context, id string, studentIDs []string) error
	TransferStudents(ctx context.Context, fromID string, fromStudents []string, toID string, toStudents []string) error
	Delete(ctx context.Context, id string) error
}

type mentorMissionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Mission, error)
	AddStudentMentor(ctx context.Context, missionID, studentID, mentorID string, primary bool) error
	SwapStudentMentor(ctx context.Context, missionID, studentID, fromMentorID, toMentorID string) error
}

// MissionMentorService manages mentor-to-mission bindings, distributes
// students across mentors under capacity limits, and moves students between
// mentors.
type MissionMentorService struct {
	repo      missionMentorRepository
	missions  mentorMissionRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMissionMentorService constructs a MissionMentorService instance.
func NewMissionMentorService(repo missionMentorRepository, missions mentorMissionRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *MissionMentorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MissionMentorService{repo: repo, missions: missions, audit: audit, validator: validate, logger: logger}
}

// ListByMission returns all mentor bindings of a mission.
func (s *MissionMentorService) ListByMission(ctx context.Context, missionID string) ([]models.MissionMentor, error) {
	if _, err := s.missions.FindByID(ctx, missionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mission")
	}
	mentors, err := s.repo.ListByMission(ctx, missionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list mission mentors")
	}
	return mentors, nil
}

// Get fetches one mentor binding by ID.
func (s *MissionMentorService) Get(ctx context.Context, id string) (*models.MissionMentor, error) {
	mentor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mission mentor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mission mentor")
	}
	return mentor, nil
}

// AssignStudents runs the capacity allocator for one or more mentors. In
// evenly mode each mentor receives a contiguous slice of the student list of
// size ceil(len(students)/len(mentors)); in replicate mode every mentor
// receives the full list. The batch is not atomic across mentors; a capacity
// failure on one mentor leaves earlier assignments in place and is reported
// in that mentor's result.
func (s *MissionMentorService) AssignStudents(ctx context.Context, req dto.AssignMentorsRequest, caller *models.JWTClaims) ([]models.MentorAssignmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if _, err := s.missions.FindByID(ctx, req.MissionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mission")
	}

	distributeEvenly := req.DistributeEvenly == nil || *req.DistributeEvenly
	slices := splitStudents(req.StudentIDs, len(req.MentorIDs), distributeEvenly)

	results := make([]models.MentorAssignmentResult, 0, len(req.MentorIDs))
	failures := 0
	for i, mentorID := range req.MentorIDs {
		added, err := s.assignSliceToMentor(ctx, req.MissionID, mentorID, slices[i], req.SetPrimary)
		result := models.MentorAssignmentResult{MentorID: mentorID, AssignedCount: len(added), StudentIDs: added}
		if err != nil {
			result.Error = err.Error()
			failures++
		}
		results = append(results, result)
	}

	if caller != nil && s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &caller.UserID,
			Action:     models.AuditActionMentorAssign,
			Resource:   "mission_mentor",
			ResourceID: &req.MissionID,
		}); err != nil {
			s.logger.Warn("failed to record mentor assignment audit log", zap.Error(err))
		}
	}

	if failures == len(req.MentorIDs) && failures > 0 {
		return results, appErrors.Clone(appErrors.ErrCapacityExceeded, results[0].Error)
	}
	return results, nil
}

// assignSliceToMentor adds a set of students to one mentor's load, creating
// the binding if the mentor is new to the mission, and mirrors each added
// student into the mission roster.
func (s *MissionMentorService) assignSliceToMentor(ctx context.Context, missionID, mentorID string, studentIDs []string, setPrimary bool) ([]string, error) {
	mentor, err := s.repo.FindByMissionAndMentor(ctx, missionID, mentorID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load mentor %s: %w", mentorID, err)
		}
		mentor = &models.MissionMentor{
			ID:        uuid.NewString(),
			MissionID: missionID,
			MentorID:  mentorID,
			Status:    models.MentorStatusActive,
		}
		if err := s.repo.Create(ctx, mentor); err != nil {
			return nil, fmt.Errorf("create mentor binding for %s: %w", mentorID, err)
		}
	}

	merged, added := mergeStudentSet(mentor.AssignedStudents, studentIDs)
	if len(added) == 0 {
		return []string{}, nil
	}
	if len(merged) > mentor.EffectiveMaxStudents() {
		return nil, fmt.Errorf("mentor %s capacity exceeded: workload %d + incoming %d > max %d",
			mentorID, mentor.CurrentWorkload, len(added), mentor.EffectiveMaxStudents())
	}

	if err := s.repo.SetAssignedStudents(ctx, mentor.ID, merged); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("mentor %s capacity exceeded", mentorID)
		}
		return nil, fmt.Errorf("persist assignments for mentor %s: %w", mentorID, err)
	}

	for _, studentID := range added {
		if err := s.missions.AddStudentMentor(ctx, missionID, studentID, mentorID, setPrimary); err != nil {
			s.logger.Warn("failed to mirror mentor onto mission student",
				zap.String("mission_id", missionID),
				zap.String("student_id", studentID),
				zap.Error(err))
		}
	}
	return added, nil
}

// ReassignStudents moves students from one mentor of a mission to another.
// Destination capacity is enforced the same way initial assignment enforces
// it, and the destination becomes each moved student's primary mentor.
func (s *MissionMentorService) ReassignStudents(ctx context.Context, req dto.ReassignStudentsRequest, caller *models.JWTClaims) (*models.MentorAssignmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reassignment payload")
	}
	if req.FromMentorID == req.ToMentorID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "source and destination mentors must differ")
	}

	from, err := s.repo.FindByMissionAndMentor(ctx, req.MissionID, req.FromMentorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "source mentor is not assigned to this mission")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load source mentor")
	}
	to, err := s.repo.FindByMissionAndMentor(ctx, req.MissionID, req.ToMentorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "destination mentor is not assigned to this mission")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load destination mentor")
	}

	remaining, moved := removeStudentSet(from.AssignedStudents, req.StudentIDs)
	if len(moved) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "none of the given students are assigned to the source mentor")
	}

	mergedTo, added := mergeStudentSet(to.AssignedStudents, moved)
	if len(mergedTo) > to.EffectiveMaxStudents() {
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("mentor %s capacity exceeded: workload %d + incoming %d > max %d",
				req.ToMentorID, to.CurrentWorkload, len(added), to.EffectiveMaxStudents()))
	}

	if err := s.repo.TransferStudents(ctx, from.ID, remaining, to.ID, mergedTo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrCapacityExceeded,
				fmt.Sprintf("mentor %s capacity exceeded", req.ToMentorID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transfer students")
	}

	for _, studentID := range moved {
		if err := s.missions.SwapStudentMentor(ctx, req.MissionID, studentID, req.FromMentorID, req.ToMentorID); err != nil {
			s.logger.Warn("failed to update mission student mentors after reassignment",
				zap.String("mission_id", req.MissionID),
				zap.String("student_id", studentID),
				zap.Error(err))
		}
	}

	if caller != nil && s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &caller.UserID,
			Action:     models.AuditActionMentorReassign,
			Resource:   "mission_mentor",
			ResourceID: &req.MissionID,
		}); err != nil {
			s.logger.Warn("failed to record reassignment audit log", zap.Error(err))
		}
	}

	return &models.MentorAssignmentResult{
		MentorID:      req.ToMentorID,
		AssignedCount: len(moved),
		StudentIDs:    moved,
	}, nil
}

// UpdateProfile edits a mentor binding's role and specialization.
func (s *MissionMentorService) UpdateProfile(ctx context.Context, id string, req dto.UpdateMentorProfileRequest) error {
	mentor, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateProfile(ctx, mentor.ID, req.Role, req.Specialization, mentor.Status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update mentor profile")
	}
	return nil
}

// UpdateStatus changes a mentor's availability status.
func (s *MissionMentorService) UpdateStatus(ctx context.Context, id string, req dto.UpdateMentorStatusRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, models.MentorStatus(req.Status)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update mentor status")
	}
	return nil
}

// UpdateCapacity changes a mentor's maximum student load. Lowering the cap
// below the current workload is rejected.
func (s *MissionMentorService) UpdateCapacity(ctx context.Context, id string, req dto.UpdateMentorCapacityRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid capacity payload")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateCapacity(ctx, id, req.MaxStudents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "max students cannot be lower than current workload")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update mentor capacity")
	}
	return nil
}

// Delete removes a mentor binding. Bindings with assigned students must be
// emptied through reassignment first.
func (s *MissionMentorService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "mentor still has assigned students")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete mission mentor")
	}
	return nil
}

// BulkOperations dispatches a named bulk operation over a list of items.
// Items are processed independently in order; each result carries its own
// success flag and earlier successes stand when a later item fails.
func (s *MissionMentorService) BulkOperations(ctx context.Context, req dto.BulkMentorOperationRequest, caller *models.JWTClaims) ([]dto.BulkMentorOperationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk operation payload")
	}

	results := make([]dto.BulkMentorOperationResult, 0, len(req.Items))
	for _, item := range req.Items {
		result := dto.BulkMentorOperationResult{MentorID: item.MentorID, Success: true}
		var err error
		switch req.Operation {
		case "bulk_update":
			err = s.updateByMissionMentor(ctx, req.MissionID, item.MentorID, func(id string) error {
				return s.UpdateProfile(ctx, id, dto.UpdateMentorProfileRequest{Role: item.Role, Specialization: item.Specialization})
			})
		case "bulk_status_update":
			err = s.updateByMissionMentor(ctx, req.MissionID, item.MentorID, func(id string) error {
				return s.UpdateStatus(ctx, id, dto.UpdateMentorStatusRequest{Status: item.Status})
			})
		case "bulk_capacity_update":
			err = s.updateByMissionMentor(ctx, req.MissionID, item.MentorID, func(id string) error {
				return s.UpdateCapacity(ctx, id, dto.UpdateMentorCapacityRequest{MaxStudents: item.MaxStudents})
			})
		case "bulk_assign_students":
			_, err = s.assignSliceToMentor(ctx, req.MissionID, item.MentorID, item.StudentIDs, false)
		case "bulk_reassign_students":
			result.MentorID = item.ToMentorID
			_, err = s.ReassignStudents(ctx, dto.ReassignStudentsRequest{
				MissionID:    req.MissionID,
				FromMentorID: item.FromMentorID,
				ToMentorID:   item.ToMentorID,
				StudentIDs:   item.StudentIDs,
			}, caller)
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown bulk operation %q", req.Operation))
		}
		if err != nil {
			result.Success = false
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *MissionMentorService) updateByMissionMentor(ctx context.Context, missionID, mentorID string, fn func(id string) error) error {
	mentor, err := s.repo.FindByMissionAndMentor(ctx, missionID, mentorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("mentor %s is not assigned to this mission", mentorID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mentor")
	}
	return fn(mentor.ID)
}

// splitStudents produces the per-mentor student slices. Evenly mode cuts
// contiguous, non-overlapping slices of size ceil(n/mentors) in order; the
// last mentors may receive fewer or zero students. Replicate mode hands the
// full list to every mentor.
func splitStudents(studentIDs []string, mentorCount int, evenly bool) [][]string {
	slices := make([][]string, mentorCount)
	if !evenly {
		for i := range slices {
			slices[i] = studentIDs
		}
		return slices
	}
	if len(studentIDs) == 0 {
		for i := range slices {
			slices[i] = []string{}
		}
		return slices
	}
	perMentor := (len(studentIDs) + mentorCount - 1) / mentorCount
	for i := range slices {
		start := i * perMentor
		if start >= len(studentIDs) {
			slices[i] = []string{}
			continue
		}
		end := start + perMentor
		if end > len(studentIDs) {
			end = len(studentIDs)
		}
		slices[i] = studentIDs[start:end]
	}
	return slices
}

// mergeStudentSet unions incoming IDs into an existing list with set
// semantics, preserving order. Returns the merged list and the IDs actually
// added.
func mergeStudentSet(existing []string, incoming []string) ([]string, []string) {
	seen := make(map[string]struct{}, len(existing))
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, id := range existing {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	added := make([]string, 0, len(incoming))
	for _, id := range incoming {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
		added = append(added, id)
	}
	return merged, added
}

// removeStudentSet subtracts the given IDs from an existing list. Returns
// the remaining list and the IDs actually removed, both in original order.
func removeStudentSet(existing []string, toRemove []string) ([]string, []string) {
	removeSet := make(map[string]struct{}, len(toRemove))
	for _, id := range toRemove {
		removeSet[id] = struct{}{}
	}
	remaining := make([]string, 0, len(existing))
	removed := make([]string, 0, len(toRemove))
	for _, id := range existing {
		if _, ok := removeSet[id]; ok {
			removed = append(removed, id)
			continue
		}
		remaining = append(remaining, id)
	}
	return remaining, removed
}
