package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/mission-hub-api/internal/dto"
	"github.com/noah-isme/mission-hub-api/internal/models"
	appErrors "github.com/noah-isme/mission-hub-api/pkg/errors"
	"github.com/noah-isme/mission-hub-api/pkg/jobs"
	"github.com/noah-isme/mission-hub-api/pkg/mailer"
)

type mockStudentUserRepo struct {
	users        map[string]models.User
	studentCount int
	tempPassword map[string]string
	tempExpiry   map[string]time.Time
}

func (m *mockStudentUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var list []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		list = append(list, u)
	}
	return list, len(list), nil
}

func (m *mockStudentUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentUserRepo) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var list []models.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			list = append(list, u)
		}
	}
	return list, nil
}

func (m *mockStudentUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]models.User)
	}
	m.users[user.ID] = *user
	if user.Role == models.RoleStudent {
		m.studentCount++
	}
	return nil
}

func (m *mockStudentUserRepo) CountStudentsByYear(ctx context.Context, yearPrefix string) (int, error) {
	return m.studentCount, nil
}

func (m *mockStudentUserRepo) SetTemporaryPassword(ctx context.Context, id, passwordHash string, expiresAt time.Time) error {
	if m.tempPassword == nil {
		m.tempPassword = make(map[string]string)
		m.tempExpiry = make(map[string]time.Time)
	}
	m.tempPassword[id] = passwordHash
	m.tempExpiry[id] = expiresAt
	return nil
}

func (m *mockStudentUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return nil
}

type mockInvitationRepo struct {
	invitations map[string]models.Invitation
	sent        []string
	failed      map[string]string
}

func (m *mockInvitationRepo) ListByUser(ctx context.Context, userID string) ([]models.Invitation, error) {
	var list []models.Invitation
	for _, inv := range m.invitations {
		if inv.UserID == userID {
			list = append(list, inv)
		}
	}
	return list, nil
}

func (m *mockInvitationRepo) Create(ctx context.Context, invitation *models.Invitation) error {
	if m.invitations == nil {
		m.invitations = make(map[string]models.Invitation)
	}
	m.invitations[invitation.ID] = *invitation
	return nil
}

func (m *mockInvitationRepo) MarkSent(ctx context.Context, id string) error {
	m.sent = append(m.sent, id)
	return nil
}

func (m *mockInvitationRepo) MarkFailed(ctx context.Context, id, reason string) error {
	if m.failed == nil {
		m.failed = make(map[string]string)
	}
	m.failed[id] = reason
	return nil
}

type captureMailer struct {
	messages []mailer.Message
	err      error
}

func (m *captureMailer) Send(ctx context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

type captureQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *captureQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func studentFixture(id, email string) models.User {
	sid := "STU-2026-0001"
	return models.User{ID: id, Email: email, FullName: "Student " + id, Role: models.RoleStudent, StudentID: &sid, Active: true}
}

func TestEnrollGeneratesSequentialStudentID(t *testing.T) {
	repo := &mockStudentUserRepo{studentCount: 41}
	svc := NewStudentService(repo, &mockInvitationRepo{}, nil, nil, 0, nil, nil)

	user, err := svc.Enroll(context.Background(), dto.EnrollStudentRequest{
		Email:    "new@student.dev",
		FullName: "New Student",
	}, nil)
	require.NoError(t, err)

	require.NotNil(t, user.StudentID)
	assert.Equal(t, fmt.Sprintf("STU-%d-0042", time.Now().UTC().Year()), *user.StudentID)
	assert.Equal(t, models.RoleStudent, user.Role)
}

func TestEnrollRejectsDuplicateEmail(t *testing.T) {
	repo := &mockStudentUserRepo{users: map[string]models.User{
		"u1": studentFixture("u1", "taken@student.dev"),
	}}
	svc := NewStudentService(repo, &mockInvitationRepo{}, nil, nil, 0, nil, nil)

	_, err := svc.Enroll(context.Background(), dto.EnrollStudentRequest{
		Email:    "taken@student.dev",
		FullName: "Copycat",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)
}

func TestSendInvitationsQueuesDeliveries(t *testing.T) {
	repo := &mockStudentUserRepo{users: map[string]models.User{
		"u1": studentFixture("u1", "one@student.dev"),
		"u2": studentFixture("u2", "two@student.dev"),
	}}
	invitations := &mockInvitationRepo{}
	queue := &captureQueue{}
	svc := NewStudentService(repo, invitations, queue, nil, time.Hour, nil, nil)

	results, err := svc.SendInvitations(context.Background(), dto.SendInvitationsRequest{
		StudentIDs: []string{"u1", "u2", "ghost"},
	}, &models.JWTClaims{UserID: "admin-1"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, string(models.InvitationStatusPending), results[0].Status)
	assert.Equal(t, string(models.InvitationStatusPending), results[1].Status)
	assert.Equal(t, string(models.InvitationStatusFailed), results[2].Status)
	assert.Equal(t, "student not found", results[2].Error)

	assert.Len(t, queue.jobs, 2)
	assert.Len(t, invitations.invitations, 2)
	assert.Len(t, repo.tempPassword, 2, "each invited student got a temporary password")
	for _, expiry := range repo.tempExpiry {
		assert.True(t, expiry.After(time.Now()))
	}
}

func TestSendInvitationsSynchronousFallback(t *testing.T) {
	repo := &mockStudentUserRepo{users: map[string]models.User{
		"u1": studentFixture("u1", "one@student.dev"),
	}}
	invitations := &mockInvitationRepo{}
	mail := &captureMailer{}
	svc := NewStudentService(repo, invitations, nil, mail, time.Hour, nil, nil)

	results, err := svc.SendInvitations(context.Background(), dto.SendInvitationsRequest{
		StudentIDs: []string{"u1"},
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, string(models.InvitationStatusSent), results[0].Status)
	require.Len(t, mail.messages, 1)
	assert.Equal(t, "one@student.dev", mail.messages[0].ToAddress)
	assert.Contains(t, mail.messages[0].TextBody, "Temporary password")
	assert.Len(t, invitations.sent, 1)
}

func TestSendInvitationsDeliveryFailureTracked(t *testing.T) {
	repo := &mockStudentUserRepo{users: map[string]models.User{
		"u1": studentFixture("u1", "one@student.dev"),
	}}
	invitations := &mockInvitationRepo{}
	mail := &captureMailer{err: errors.New("provider rejected")}
	svc := NewStudentService(repo, invitations, nil, mail, time.Hour, nil, nil)

	results, err := svc.SendInvitations(context.Background(), dto.SendInvitationsRequest{
		StudentIDs: []string{"u1"},
	}, nil)
	require.NoError(t, err, "per-recipient failures do not fail the request")

	assert.Equal(t, string(models.InvitationStatusFailed), results[0].Status)
	assert.Len(t, invitations.failed, 1)
}

func TestHandleInvitationJobDelivers(t *testing.T) {
	invitations := &mockInvitationRepo{invitations: map[string]models.Invitation{
		"inv1": {ID: "inv1", UserID: "u1", Email: "one@student.dev", Status: models.InvitationStatusPending},
	}}
	mail := &captureMailer{}
	svc := NewStudentService(&mockStudentUserRepo{}, invitations, nil, mail, time.Hour, nil, nil)

	err := svc.HandleInvitationJob(context.Background(), jobs.Job{
		ID:   "inv1",
		Type: JobTypeInvitationEmail,
		Payload: InvitationEmailPayload{
			InvitationID: "inv1",
			Email:        "one@student.dev",
			FullName:     "Student One",
			StudentID:    "STU-2026-0001",
			TempPassword: "temp-pass",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"inv1"}, invitations.sent)
	require.Len(t, mail.messages, 1)
	assert.Contains(t, mail.messages[0].TextBody, "STU-2026-0001")
}

func TestHandleInvitationJobRejectsWrongPayload(t *testing.T) {
	svc := NewStudentService(&mockStudentUserRepo{}, &mockInvitationRepo{}, nil, &captureMailer{}, time.Hour, nil, nil)

	err := svc.HandleInvitationJob(context.Background(), jobs.Job{ID: "x", Payload: "bogus"})
	require.Error(t, err)
}

func TestTemporaryPasswordVerifiesAgainstStoredHash(t *testing.T) {
	repo := &mockStudentUserRepo{users: map[string]models.User{
		"u1": studentFixture("u1", "one@student.dev"),
	}}
	mail := &captureMailer{}
	svc := NewStudentService(repo, &mockInvitationRepo{}, nil, mail, time.Hour, nil, nil)

	_, err := svc.SendInvitations(context.Background(), dto.SendInvitationsRequest{StudentIDs: []string{"u1"}}, nil)
	require.NoError(t, err)

	require.Len(t, mail.messages, 1)
	var tempPassword string
	for _, line := range strings.Split(mail.messages[0].TextBody, "\n") {
		if strings.HasPrefix(line, "Temporary password: ") {
			tempPassword = strings.TrimPrefix(line, "Temporary password: ")
		}
	}
	require.NotEmpty(t, tempPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.tempPassword["u1"]), []byte(tempPassword)))
}
