package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mission-hub-api/internal/dto"
	"github.com/noah-isme/mission-hub-api/internal/models"
	appErrors "github.com/noah-isme/mission-hub-api/pkg/errors"
)

type mockGroupRepo struct {
	groups map[string]models.MentorshipGroup
}

func (m *mockGroupRepo) ListByMission(ctx context.Context, missionID string) ([]models.MentorshipGroup, error) {
	var list []models.MentorshipGroup
	for _, g := range m.groups {
		if g.MissionID == missionID {
			list = append(list, g)
		}
	}
	return list, nil
}

func (m *mockGroupRepo) FindByID(ctx context.Context, id string) (*models.MentorshipGroup, error) {
	if g, ok := m.groups[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGroupRepo) ExistsByName(ctx context.Context, missionID, name, excludeID string) (bool, error) {
	for _, g := range m.groups {
		if g.MissionID == missionID && g.Name == name && g.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockGroupRepo) Create(ctx context.Context, group *models.MentorshipGroup) error {
	if m.groups == nil {
		m.groups = make(map[string]models.MentorshipGroup)
	}
	if group.ID == "" {
		group.ID = "new-group"
	}
	m.groups[group.ID] = *group
	return nil
}

func (m *mockGroupRepo) Update(ctx context.Context, group *models.MentorshipGroup) error {
	m.groups[group.ID] = *group
	return nil
}

func (m *mockGroupRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.groups[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.groups, id)
	return nil
}

type mockGroupMissionRepo struct {
	missions     map[string]models.Mission
	groupMembers map[string][]string
	clearedAll   []string
	clearedOne   []string
	assigned     []string
}

func (m *mockGroupMissionRepo) FindByID(ctx context.Context, id string) (*models.Mission, error) {
	if mission, ok := m.missions[id]; ok {
		return &mission, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGroupMissionRepo) ClearGroupFromStudents(ctx context.Context, missionID, groupID string) (int, error) {
	count := len(m.groupMembers[groupID])
	m.groupMembers[groupID] = nil
	m.clearedAll = append(m.clearedAll, groupID)
	return count, nil
}

func (m *mockGroupMissionRepo) ClearGroupFromStudent(ctx context.Context, missionID, groupID, studentID string) error {
	members := m.groupMembers[groupID]
	for i, id := range members {
		if id == studentID {
			m.groupMembers[groupID] = append(members[:i], members[i+1:]...)
			m.clearedOne = append(m.clearedOne, studentID)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockGroupMissionRepo) AssignGroupToStudent(ctx context.Context, missionID, groupID, studentID, assignedBy string) error {
	if m.groupMembers == nil {
		m.groupMembers = make(map[string][]string)
	}
	m.groupMembers[groupID] = append(m.groupMembers[groupID], studentID)
	m.assigned = append(m.assigned, studentID)
	return nil
}

func (m *mockGroupMissionRepo) ListStudentsByGroup(ctx context.Context, missionID, groupID string) ([]models.MissionStudent, error) {
	var students []models.MissionStudent
	for _, id := range m.groupMembers[groupID] {
		students = append(students, models.MissionStudent{MissionID: missionID, StudentID: id})
	}
	return students, nil
}

type mockGroupMentorChecker struct {
	known map[string]bool
}

func (m *mockGroupMentorChecker) ExistsForMission(ctx context.Context, missionID, mentorID string) (bool, error) {
	return m.known[mentorID], nil
}

func newGroupService(repo *mockGroupRepo, missions *mockGroupMissionRepo, mentors map[string]bool) *MentorshipGroupService {
	if missions.missions == nil {
		missions.missions = map[string]models.Mission{"m1": {ID: "m1", Name: "Cohort 1"}}
	}
	return NewMentorshipGroupService(repo, missions, &mockGroupMentorChecker{known: mentors}, nil, nil, nil)
}

func TestCreateGroupValidatesMentorBindings(t *testing.T) {
	svc := newGroupService(&mockGroupRepo{}, &mockGroupMissionRepo{}, map[string]bool{"mentor-a": true})

	_, err := svc.Create(context.Background(), dto.CreateMentorshipGroupRequest{
		MissionID: "m1",
		Name:      "Gophers",
		MentorIDs: []string{"mentor-a", "unbound-mentor"},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "no mentors available")
}

func TestCreateGroupAttachesInitialStudents(t *testing.T) {
	repo := &mockGroupRepo{}
	missions := &mockGroupMissionRepo{}
	svc := newGroupService(repo, missions, map[string]bool{"mentor-a": true})

	group, err := svc.Create(context.Background(), dto.CreateMentorshipGroupRequest{
		MissionID:  "m1",
		Name:       "Gophers",
		MentorIDs:  []string{"mentor-a"},
		StudentIDs: []string{"s1", "s2"},
	}, &models.JWTClaims{UserID: "admin-1"})
	require.NoError(t, err)

	assert.Equal(t, "admin-1", group.CreatedBy)
	assert.Equal(t, []string{"s1", "s2"}, missions.assigned)
}

func TestCreateGroupDuplicateNameConflicts(t *testing.T) {
	repo := &mockGroupRepo{groups: map[string]models.MentorshipGroup{
		"g1": {ID: "g1", MissionID: "m1", Name: "Gophers"},
	}}
	svc := newGroupService(repo, &mockGroupMissionRepo{}, map[string]bool{"mentor-a": true})

	_, err := svc.Create(context.Background(), dto.CreateMentorshipGroupRequest{
		MissionID: "m1",
		Name:      "Gophers",
		MentorIDs: []string{"mentor-a"},
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)
}

func TestCreateGroupNameMatchIsCaseSensitive(t *testing.T) {
	repo := &mockGroupRepo{groups: map[string]models.MentorshipGroup{
		"g1": {ID: "g1", MissionID: "m1", Name: "Gophers"},
	}}
	svc := newGroupService(repo, &mockGroupMissionRepo{}, map[string]bool{"mentor-a": true})

	_, err := svc.Create(context.Background(), dto.CreateMentorshipGroupRequest{
		MissionID: "m1",
		Name:      "gophers",
		MentorIDs: []string{"mentor-a"},
	}, nil)
	require.NoError(t, err, "differently-cased names are distinct")
}

func TestDeleteGroupClearsStudentReferences(t *testing.T) {
	repo := &mockGroupRepo{groups: map[string]models.MentorshipGroup{
		"g1": {ID: "g1", MissionID: "m1", Name: "Gophers"},
	}}
	missions := &mockGroupMissionRepo{groupMembers: map[string][]string{"g1": {"s1", "s2"}}}
	svc := newGroupService(repo, missions, nil)

	require.NoError(t, svc.Delete(context.Background(), "g1", nil))

	assert.Empty(t, repo.groups)
	assert.Equal(t, []string{"g1"}, missions.clearedAll)
	assert.Empty(t, missions.groupMembers["g1"])
}

func TestRemoveSingleStudentKeepsGroup(t *testing.T) {
	repo := &mockGroupRepo{groups: map[string]models.MentorshipGroup{
		"g1": {ID: "g1", MissionID: "m1", Name: "Gophers"},
	}}
	missions := &mockGroupMissionRepo{groupMembers: map[string][]string{"g1": {"s1", "s2"}}}
	svc := newGroupService(repo, missions, nil)

	require.NoError(t, svc.RemoveStudent(context.Background(), "g1", "s1", nil))

	assert.Len(t, repo.groups, 1, "group survives single-student removal")
	assert.Equal(t, []string{"s2"}, missions.groupMembers["g1"])
}

func TestRemoveStudentNotInGroup(t *testing.T) {
	repo := &mockGroupRepo{groups: map[string]models.MentorshipGroup{
		"g1": {ID: "g1", MissionID: "m1", Name: "Gophers"},
	}}
	svc := newGroupService(repo, &mockGroupMissionRepo{groupMembers: map[string][]string{}}, nil)

	err := svc.RemoveStudent(context.Background(), "g1", "outsider", nil)
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestUpdateGroupRenameChecksUniqueness(t *testing.T) {
	repo := &mockGroupRepo{groups: map[string]models.MentorshipGroup{
		"g1": {ID: "g1", MissionID: "m1", Name: "Gophers"},
		"g2": {ID: "g2", MissionID: "m1", Name: "Rustaceans"},
	}}
	svc := newGroupService(repo, &mockGroupMissionRepo{}, nil)

	_, err := svc.Update(context.Background(), "g2", dto.UpdateMentorshipGroupRequest{Name: "Gophers"}, nil)
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)

	updated, err := svc.Update(context.Background(), "g2", dto.UpdateMentorshipGroupRequest{Name: "Pythonistas"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Pythonistas", updated.Name)
}

func TestGetGroupIncludesStudents(t *testing.T) {
	repo := &mockGroupRepo{groups: map[string]models.MentorshipGroup{
		"g1": {ID: "g1", MissionID: "m1", Name: "Gophers"},
	}}
	missions := &mockGroupMissionRepo{groupMembers: map[string][]string{"g1": {"s1"}}}
	svc := newGroupService(repo, missions, nil)

	detail, err := svc.Get(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, detail.Students, 1)
	assert.Equal(t, "s1", detail.Students[0].StudentID)
}
