package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mission-hub-api/internal/dto"
	"github.com/noah-isme/mission-hub-api/internal/models"
	appErrors "github.com/noah-isme/mission-hub-api/pkg/errors"
)

type mockMissionMentorRepo struct {
	mentors map[string]models.MissionMentor
}

func (m *mockMissionMentorRepo) byID(id string) (models.MissionMentor, bool) {
	mentor, ok := m.mentors[id]
	return mentor, ok
}

func (m *mockMissionMentorRepo) ListByMission(ctx context.Context, missionID string) ([]models.MissionMentor, error) {
	var list []models.MissionMentor
	for _, mentor := range m.mentors {
		if mentor.MissionID == missionID {
			list = append(list, mentor)
		}
	}
	return list, nil
}

func (m *mockMissionMentorRepo) FindByID(ctx context.Context, id string) (*models.MissionMentor, error) {
	if mentor, ok := m.mentors[id]; ok {
		return &mentor, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMissionMentorRepo) FindByMissionAndMentor(ctx context.Context, missionID, mentorID string) (*models.MissionMentor, error) {
	for _, mentor := range m.mentors {
		if mentor.MissionID == missionID && mentor.MentorID == mentorID {
			found := mentor
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockMissionMentorRepo) ExistsForMission(ctx context.Context, missionID, mentorID string) (bool, error) {
	_, err := m.FindByMissionAndMentor(ctx, missionID, mentorID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (m *mockMissionMentorRepo) Create(ctx context.Context, mentor *models.MissionMentor) error {
	if m.mentors == nil {
		m.mentors = make(map[string]models.MissionMentor)
	}
	m.mentors[mentor.ID] = *mentor
	return nil
}

func (m *mockMissionMentorRepo) UpdateProfile(ctx context.Context, id, role, specialization string, status models.MentorStatus) error {
	mentor := m.mentors[id]
	mentor.Role = role
	mentor.Specialization = specialization
	m.mentors[id] = mentor
	return nil
}

func (m *mockMissionMentorRepo) UpdateStatus(ctx context.Context, id string, status models.MentorStatus) error {
	mentor := m.mentors[id]
	mentor.Status = status
	m.mentors[id] = mentor
	return nil
}

func (m *mockMissionMentorRepo) UpdateCapacity(ctx context.Context, id string, maxStudents int) error {
	mentor := m.mentors[id]
	if mentor.CurrentWorkload > maxStudents {
		return sql.ErrNoRows
	}
	mentor.MaxStudents = maxStudents
	m.mentors[id] = mentor
	return nil
}

func (m *mockMissionMentorRepo) SetAssignedStudents(ctx context.Context, id string, studentIDs []string) error {
	mentor, ok := m.mentors[id]
	if !ok || len(studentIDs) > mentor.EffectiveMaxStudents() {
		return sql.ErrNoRows
	}
	mentor.AssignedStudents = pq.StringArray(studentIDs)
	mentor.CurrentWorkload = len(studentIDs)
	m.mentors[id] = mentor
	return nil
}

func (m *mockMissionMentorRepo) TransferStudents(ctx context.Context, fromID string, fromStudents []string, toID string, toStudents []string) error {
	if err := m.SetAssignedStudents(ctx, toID, toStudents); err != nil {
		return err
	}
	return m.SetAssignedStudents(ctx, fromID, fromStudents)
}

func (m *mockMissionMentorRepo) Delete(ctx context.Context, id string) error {
	mentor, ok := m.mentors[id]
	if !ok || mentor.CurrentWorkload > 0 {
		return sql.ErrNoRows
	}
	delete(m.mentors, id)
	return nil
}

type mockMentorMissionRepo struct {
	missions map[string]models.Mission
	mirrored []string
	swapped  []string
}

func (m *mockMentorMissionRepo) FindByID(ctx context.Context, id string) (*models.Mission, error) {
	if mission, ok := m.missions[id]; ok {
		return &mission, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMentorMissionRepo) AddStudentMentor(ctx context.Context, missionID, studentID, mentorID string, primary bool) error {
	m.mirrored = append(m.mirrored, studentID+":"+mentorID)
	return nil
}

func (m *mockMentorMissionRepo) SwapStudentMentor(ctx context.Context, missionID, studentID, fromMentorID, toMentorID string) error {
	m.swapped = append(m.swapped, studentID+":"+fromMentorID+">"+toMentorID)
	return nil
}

func mentorFixture(id, mentorID string, students []string, max int) models.MissionMentor {
	return models.MissionMentor{
		ID:               id,
		MissionID:        "m1",
		MentorID:         mentorID,
		AssignedStudents: pq.StringArray(students),
		CurrentWorkload:  len(students),
		MaxStudents:      max,
		Status:           models.MentorStatusActive,
	}
}

func newMentorService(repo *mockMissionMentorRepo, missions *mockMentorMissionRepo) *MissionMentorService {
	if missions.missions == nil {
		missions.missions = map[string]models.Mission{"m1": {ID: "m1", Name: "Cohort 1"}}
	}
	return NewMissionMentorService(repo, missions, nil, nil, nil)
}

func TestSplitStudentsEvenly(t *testing.T) {
	slices := splitStudents([]string{"s1", "s2", "s3", "s4", "s5"}, 2, true)

	require.Len(t, slices, 2)
	assert.Equal(t, []string{"s1", "s2", "s3"}, slices[0])
	assert.Equal(t, []string{"s4", "s5"}, slices[1])
}

func TestSplitStudentsLastMentorMayGetZero(t *testing.T) {
	slices := splitStudents([]string{"s1", "s2"}, 3, true)

	require.Len(t, slices, 3)
	assert.Equal(t, []string{"s1"}, slices[0])
	assert.Equal(t, []string{"s2"}, slices[1])
	assert.Empty(t, slices[2])
}

func TestSplitStudentsReplicate(t *testing.T) {
	students := []string{"s1", "s2"}
	slices := splitStudents(students, 3, false)

	require.Len(t, slices, 3)
	for _, slice := range slices {
		assert.Equal(t, students, slice)
	}
}

func TestAssignStudentsEvenly(t *testing.T) {
	repo := &mockMissionMentorRepo{mentors: map[string]models.MissionMentor{
		"mm1": mentorFixture("mm1", "mentor-a", nil, 10),
		"mm2": mentorFixture("mm2", "mentor-b", nil, 10),
	}}
	missions := &mockMentorMissionRepo{}
	svc := newMentorService(repo, missions)

	results, err := svc.AssignStudents(context.Background(), dto.AssignMentorsRequest{
		MissionID:  "m1",
		MentorIDs:  []string{"mentor-a", "mentor-b"},
		StudentIDs: []string{"s1", "s2", "s3"},
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, []string{"s1", "s2"}, results[0].StudentIDs)
	assert.Equal(t, []string{"s3"}, results[1].StudentIDs)

	first, _ := repo.byID("mm1")
	assert.Equal(t, 2, first.CurrentWorkload)
	assert.Len(t, missions.mirrored, 3)
}

func TestAssignStudentsCreatesMissingBinding(t *testing.T) {
	repo := &mockMissionMentorRepo{mentors: map[string]models.MissionMentor{}}
	svc := newMentorService(repo, &mockMentorMissionRepo{})

	results, err := svc.AssignStudents(context.Background(), dto.AssignMentorsRequest{
		MissionID:  "m1",
		MentorIDs:  []string{"mentor-new"},
		StudentIDs: []string{"s1"},
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].AssignedCount)
	assert.Len(t, repo.mentors, 1)
}

func TestAssignStudentsCapacityErrorNamesMentor(t *testing.T) {
	repo := &mockMissionMentorRepo{mentors: map[string]models.MissionMentor{
		"mm1": mentorFixture("mm1", "mentor-a", []string{"s1", "s2"}, 3),
	}}
	svc := newMentorService(repo, &mockMentorMissionRepo{})

	results, err := svc.AssignStudents(context.Background(), dto.AssignMentorsRequest{
		MissionID:  "m1",
		MentorIDs:  []string{"mentor-a"},
		StudentIDs: []string{"s3", "s4"},
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "mentor-a")

	unchanged, _ := repo.byID("mm1")
	assert.Equal(t, 2, unchanged.CurrentWorkload)
}

func TestAssignStudentsPartialApplication(t *testing.T) {
	repo := &mockMissionMentorRepo{mentors: map[string]models.MissionMentor{
		"mm1": mentorFixture("mm1", "mentor-a", nil, 10),
		"mm2": mentorFixture("mm2", "mentor-b", []string{"x1"}, 2),
	}}
	svc := newMentorService(repo, &mockMentorMissionRepo{})

	results, err := svc.AssignStudents(context.Background(), dto.AssignMentorsRequest{
		MissionID:  "m1",
		MentorIDs:  []string{"mentor-a", "mentor-b"},
		StudentIDs: []string{"s1", "s2", "s3", "s4"},
	}, nil)
	require.NoError(t, err, "a single mentor failure does not fail the batch")
	require.Len(t, results, 2)

	assert.Empty(t, results[0].Error)
	assert.Equal(t, 2, results[0].AssignedCount)
	assert.Contains(t, results[1].Error, "mentor-b")

	kept, _ := repo.byID("mm1")
	assert.Equal(t, 2, kept.CurrentWorkload, "earlier successes stand")
}

func TestAssignStudentsSetSemantics(t *testing.T) {
	repo := &mockMissionMentorRepo{mentors: map[string]models.MissionMentor{
		"mm1": mentorFixture("mm1", "mentor-a", []string{"s1"}, 10),
	}}
	svc := newMentorService(repo, &mockMentorMissionRepo{})

	results, err := svc.AssignStudents(context.Background(), dto.AssignMentorsRequest{
		MissionID:  "m1",
		MentorIDs:  []string{"mentor-a"},
		StudentIDs: []string{"s1", "s2"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"s2"}, results[0].StudentIDs, "already-assigned IDs are not double counted")
	mentor, _ := repo.byID("mm1")
	assert.Equal(t, 2, mentor.CurrentWorkload)
}

func TestAssignStudentsDefaultCapacityIsTen(t *testing.T) {
	repo := &mockMissionMentorRepo{mentors: map[string]models.MissionMentor{
		"mm1": mentorFixture("mm1", "mentor-a", nil, 0),
	}}
	svc := newMentorService(repo, &mockMentorMissionRepo{})

	students := make([]string, 11)
	for i := range students {
		students[i] = string(rune('a' + i))
	}
	_, err := svc.AssignStudents(context.Background(), dto.AssignMentorsRequest{
		MissionID:  "m1",
		MentorIDs:  []string{"mentor-a"},
		StudentIDs: students,
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)
}

func TestReassignStudentsMovesLoad(t *testing.T) {
	repo := &mockMissionMentorRepo{mentors: map[string]models.MissionMentor{
		"mm1": mentorFixture("mm1", "mentor-a", []string{"s1", "s2", "s3"}, 10),
		"mm2": mentorFixture("mm2", "mentor-b", []string{"x1"}, 10),
	}}
	missions := &mockMentorMissionRepo{}
	svc := newMentorService(repo, missions)

	result, err := svc.ReassignStudents(context.Background(), dto.ReassignStudentsRequest{
		MissionID:    "m1",
		FromMentorID: "mentor-a",
		ToMentorID:   "mentor-b",
		StudentIDs:   []string{"s1", "s3"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.AssignedCount)
	from, _ := repo.byID("mm1")
	to, _ := repo.byID("mm2")
	assert.Equal(t, []string{"s2"}, []string(from.AssignedStudents))
	assert.Equal(t, []string{"x1", "s1", "s3"}, []string(to.AssignedStudents))
	assert.Equal(t, 1, from.CurrentWorkload)
	assert.Equal(t, 3, to.CurrentWorkload)
	assert.Equal(t, []string{"s1:mentor-a>mentor-b", "s3:mentor-a>mentor-b"}, missions.swapped)
}

func TestReassignStudentsEnforcesDestinationCapacity(t *testing.T) {
	repo := &mockMissionMentorRepo{mentors: map[string]models.MissionMentor{
		"mm1": mentorFixture("mm1", "mentor-a", []string{"s1", "s2"}, 10),
		"mm2": mentorFixture("mm2", "mentor-b", []string{"x1", "x2"}, 3),
	}}
	svc := newMentorService(repo, &mockMentorMissionRepo{})

	_, err := svc.ReassignStudents(context.Background(), dto.ReassignStudentsRequest{
		MissionID:    "m1",
		FromMentorID: "mentor-a",
		ToMentorID:   "mentor-b",
		StudentIDs:   []string{"s1", "s2"},
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)

	from, _ := repo.byID("mm1")
	assert.Equal(t, 2, from.CurrentWorkload, "nothing moved on capacity failure")
}

func TestReassignStudentsIgnoresUnassignedIDs(t *testing.T) {
	repo := &mockMissionMentorRepo{mentors: map[string]models.MissionMentor{
		"mm1": mentorFixture("mm1", "mentor-a", []string{"s1"}, 10),
		"mm2": mentorFixture("mm2", "mentor-b", nil, 10),
	}}
	svc := newMentorService(repo, &mockMentorMissionRepo{})

	result, err := svc.ReassignStudents(context.Background(), dto.ReassignStudentsRequest{
		MissionID:    "m1",
		FromMentorID: "mentor-a",
		ToMentorID:   "mentor-b",
		StudentIDs:   []string{"s1", "never-assigned"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, result.StudentIDs)
}

func TestReassignStudentsUnknownSourceMentor(t *testing.T) {
	repo := &mockMissionMentorRepo{mentors: map[string]models.MissionMentor{}}
	svc := newMentorService(repo, &mockMentorMissionRepo{})

	_, err := svc.ReassignStudents(context.Background(), dto.ReassignStudentsRequest{
		MissionID:    "m1",
		FromMentorID: "ghost",
		ToMentorID:   "mentor-b",
		StudentIDs:   []string{"s1"},
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestUpdateCapacityBelowWorkloadConflicts(t *testing.T) {
	repo := &mockMissionMentorRepo{mentors: map[string]models.MissionMentor{
		"mm1": mentorFixture("mm1", "mentor-a", []string{"s1", "s2", "s3"}, 10),
	}}
	svc := newMentorService(repo, &mockMentorMissionRepo{})

	err := svc.UpdateCapacity(context.Background(), "mm1", dto.UpdateMentorCapacityRequest{MaxStudents: 2})
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)
}

func TestDeleteMentorWithWorkloadConflicts(t *testing.T) {
	repo := &mockMissionMentorRepo{mentors: map[string]models.MissionMentor{
		"mm1": mentorFixture("mm1", "mentor-a", []string{"s1"}, 10),
	}}
	svc := newMentorService(repo, &mockMentorMissionRepo{})

	err := svc.Delete(context.Background(), "mm1")
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)

	empty := mentorFixture("mm2", "mentor-b", nil, 10)
	repo.mentors["mm2"] = empty
	require.NoError(t, svc.Delete(context.Background(), "mm2"))
}

func TestBulkOperationsStatusUpdate(t *testing.T) {
	repo := &mockMissionMentorRepo{mentors: map[string]models.MissionMentor{
		"mm1": mentorFixture("mm1", "mentor-a", nil, 10),
		"mm2": mentorFixture("mm2", "mentor-b", nil, 10),
	}}
	svc := newMentorService(repo, &mockMentorMissionRepo{})

	results, err := svc.BulkOperations(context.Background(), dto.BulkMentorOperationRequest{
		Operation: "bulk_status_update",
		MissionID: "m1",
		Items: []dto.BulkMentorOperation{
			{MentorID: "mentor-a", Status: "INACTIVE"},
			{MentorID: "mentor-b", Status: "OVERLOADED"},
		},
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)

	a, _ := repo.byID("mm1")
	b, _ := repo.byID("mm2")
	assert.Equal(t, models.MentorStatusInactive, a.Status)
	assert.Equal(t, models.MentorStatusOverloaded, b.Status)
}

func TestBulkOperationsPartialFailure(t *testing.T) {
	repo := &mockMissionMentorRepo{mentors: map[string]models.MissionMentor{
		"mm1": mentorFixture("mm1", "mentor-a", nil, 10),
	}}
	svc := newMentorService(repo, &mockMentorMissionRepo{})

	results, err := svc.BulkOperations(context.Background(), dto.BulkMentorOperationRequest{
		Operation: "bulk_capacity_update",
		MissionID: "m1",
		Items: []dto.BulkMentorOperation{
			{MentorID: "mentor-a", MaxStudents: 5},
			{MentorID: "missing", MaxStudents: 5},
		},
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "missing")
}

func TestBulkOperationsUnknownOperation(t *testing.T) {
	svc := newMentorService(&mockMissionMentorRepo{}, &mockMentorMissionRepo{})

	_, err := svc.BulkOperations(context.Background(), dto.BulkMentorOperationRequest{
		Operation: "bulk_teleport",
		MissionID: "m1",
		Items:     []dto.BulkMentorOperation{{MentorID: "mentor-a"}},
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}
