package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/mission-hub-api/internal/dto"
	"github.com/noah-isme/mission-hub-api/internal/models"
	appErrors "github.com/noah-isme/mission-hub-api/pkg/errors"
	"github.com/noah-isme/mission-hub-api/pkg/jobs"
	"github.com/noah-isme/mission-hub-api/pkg/mailer"
)

// JobTypeInvitationEmail marks invitation delivery jobs on the queue.
const JobTypeInvitationEmail = "invitation_email"

type studentUserRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	CountStudentsByYear(ctx context.Context, yearPrefix string) (int, error)
	SetTemporaryPassword(ctx context.Context, id, passwordHash string, expiresAt time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type invitationRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Invitation, error)
	Create(ctx context.Context, invitation *models.Invitation) error
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type invitationEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// InvitationEmailPayload is the queue payload for one invitation delivery.
type InvitationEmailPayload struct {
	InvitationID string
	Email        string
	FullName     string
	StudentID    string
	TempPassword string
}

// StudentService enrolls student accounts and delivers their invitation
// emails with temporary credentials.
type StudentService struct {
	users       studentUserRepository
	invitations invitationRepository
	queue       invitationEnqueuer
	mail        mailer.Mailer
	tempPassTTL time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs a StudentService instance.
func NewStudentService(users studentUserRepository, invitations invitationRepository, queue invitationEnqueuer, mail mailer.Mailer, tempPassTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if tempPassTTL <= 0 {
		tempPassTTL = 72 * time.Hour
	}
	return &StudentService{
		users:       users,
		invitations: invitations,
		queue:       queue,
		mail:        mail,
		tempPassTTL: tempPassTTL,
		validator:   validate,
		logger:      logger,
	}
}

// List returns student accounts matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	studentRole := models.RoleStudent
	filter.Role = &studentRole
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return users, total, nil
}

// Get fetches a single student account.
func (s *StudentService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if user.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return user, nil
}

// Enroll registers a student account with a generated student ID. The
// account stays locked until an invitation delivers temporary credentials.
func (s *StudentService) Enroll(ctx context.Context, req dto.EnrollStudentRequest, caller *models.JWTClaims) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	studentID, err := s.nextStudentID(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate student id")
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		FullName:  req.FullName,
		Role:      models.RoleStudent,
		StudentID: &studentID,
		Active:    true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	if caller != nil {
		if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &caller.UserID,
			Action:     models.AuditActionUserCreate,
			Resource:   "student",
			ResourceID: &user.ID,
		}); err != nil {
			s.logger.Warn("failed to record student enrollment audit log", zap.Error(err))
		}
	}
	return user, nil
}

// SendInvitations issues a temporary password to each student and queues an
// invitation email. Delivery is tracked per recipient; students that cannot
// be prepared are reported as failed without stopping the rest.
func (s *StudentService) SendInvitations(ctx context.Context, req dto.SendInvitationsRequest, caller *models.JWTClaims) ([]dto.InvitationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invitation payload")
	}

	users, err := s.users.FindByIDs(ctx, req.StudentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	byID := make(map[string]models.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}

	results := make([]dto.InvitationResult, 0, len(req.StudentIDs))
	for _, studentID := range req.StudentIDs {
		user, ok := byID[studentID]
		if !ok || user.Role != models.RoleStudent {
			results = append(results, dto.InvitationResult{
				StudentID: studentID,
				Status:    string(models.InvitationStatusFailed),
				Error:     "student not found",
			})
			continue
		}
		result := s.prepareInvitation(ctx, user)
		results = append(results, result)
	}

	if caller != nil {
		if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
			UserID:   &caller.UserID,
			Action:   models.AuditActionInvitationSend,
			Resource: "student",
		}); err != nil {
			s.logger.Warn("failed to record invitation audit log", zap.Error(err))
		}
	}
	return results, nil
}

// prepareInvitation issues temporary credentials for one student and hands
// delivery to the queue, falling back to a synchronous send without one.
func (s *StudentService) prepareInvitation(ctx context.Context, user models.User) dto.InvitationResult {
	result := dto.InvitationResult{StudentID: user.ID, Email: user.Email}

	tempPassword, err := generateTempPassword()
	if err != nil {
		result.Status = string(models.InvitationStatusFailed)
		result.Error = "failed to generate temporary password"
		return result
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		result.Status = string(models.InvitationStatusFailed)
		result.Error = "failed to hash temporary password"
		return result
	}
	expiresAt := time.Now().UTC().Add(s.tempPassTTL)
	if err := s.users.SetTemporaryPassword(ctx, user.ID, string(hash), expiresAt); err != nil {
		result.Status = string(models.InvitationStatusFailed)
		result.Error = "failed to store temporary password"
		return result
	}

	invitation := &models.Invitation{
		ID:     uuid.NewString(),
		UserID: user.ID,
		Email:  user.Email,
		Status: models.InvitationStatusPending,
	}
	if err := s.invitations.Create(ctx, invitation); err != nil {
		result.Status = string(models.InvitationStatusFailed)
		result.Error = "failed to record invitation"
		return result
	}

	payload := InvitationEmailPayload{
		InvitationID: invitation.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		TempPassword: tempPassword,
	}
	if user.StudentID != nil {
		payload.StudentID = *user.StudentID
	}

	if s.queue != nil {
		if err := s.queue.Enqueue(jobs.Job{ID: invitation.ID, Type: JobTypeInvitationEmail, Payload: payload}); err != nil {
			s.logger.Warn("failed to enqueue invitation email", zap.String("invitation_id", invitation.ID), zap.Error(err))
			if err := s.invitations.MarkFailed(ctx, invitation.ID, "queue unavailable"); err != nil {
				s.logger.Warn("failed to mark invitation failed", zap.Error(err))
			}
			result.Status = string(models.InvitationStatusFailed)
			result.Error = "delivery queue unavailable"
			return result
		}
		result.Status = string(models.InvitationStatusPending)
		return result
	}

	if err := s.deliverInvitation(ctx, payload); err != nil {
		result.Status = string(models.InvitationStatusFailed)
		result.Error = err.Error()
		return result
	}
	result.Status = string(models.InvitationStatusSent)
	return result
}

// HandleInvitationJob is the queue handler for invitation emails.
func (s *StudentService) HandleInvitationJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(InvitationEmailPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for job %s", job.Payload, job.ID)
	}
	return s.deliverInvitation(ctx, payload)
}

func (s *StudentService) deliverInvitation(ctx context.Context, payload InvitationEmailPayload) error {
	if s.mail == nil {
		return errors.New("no mailer configured")
	}

	body := fmt.Sprintf(
		"Hello %s,\n\nYour student account is ready.\n\nStudent ID: %s\nEmail: %s\nTemporary password: %s\n\nSign in and change your password before it expires.\n",
		payload.FullName, payload.StudentID, payload.Email, payload.TempPassword)

	err := s.mail.Send(ctx, mailer.Message{
		ToName:    payload.FullName,
		ToAddress: payload.Email,
		Subject:   "Your student account invitation",
		TextBody:  body,
	})
	if err != nil {
		if markErr := s.invitations.MarkFailed(ctx, payload.InvitationID, err.Error()); markErr != nil {
			s.logger.Warn("failed to mark invitation failed", zap.Error(markErr))
		}
		return err
	}
	if err := s.invitations.MarkSent(ctx, payload.InvitationID); err != nil {
		s.logger.Warn("failed to mark invitation sent", zap.Error(err))
	}
	return nil
}

// Invitations returns a student's invitation delivery history.
func (s *StudentService) Invitations(ctx context.Context, studentID string) ([]models.Invitation, error) {
	if _, err := s.Get(ctx, studentID); err != nil {
		return nil, err
	}
	invitations, err := s.invitations.ListByUser(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invitations")
	}
	return invitations, nil
}

// nextStudentID produces sequential IDs of the form STU-<year>-<seq>.
func (s *StudentService) nextStudentID(ctx context.Context) (string, error) {
	year := time.Now().UTC().Year()
	prefix := fmt.Sprintf("STU-%d-", year)
	count, err := s.users.CountStudentsByYear(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

func generateTempPassword() (string, error) {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
