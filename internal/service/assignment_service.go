package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/mission-hub-api/internal/dto"
	"github.com/noah-isme/mission-hub-api/internal/models"
	appErrors "github.com/noah-isme/mission-hub-api/pkg/errors"
)

type assignmentRepository interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Publish(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	ListCompletions(ctx context.Context, assignmentID string) ([]models.AssignmentCompletion, error)
	RecordSubmission(ctx context.Context, completions []models.AssignmentCompletion, submission *models.EmailSubmission) error
	ListSubmissions(ctx context.Context, assignmentID string) ([]models.EmailSubmission, error)
}

type submissionNotifier interface {
	SubmissionRecorded(ctx context.Context, assignment *models.Assignment, submission *models.EmailSubmission) error
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AssignmentService manages assignments and reconciles bulk email
// submissions into their completion logs.
type AssignmentService struct {
	repo      assignmentRepository
	audit     auditRecorder
	notifier  submissionNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(repo assignmentRepository, audit auditRecorder, notifier submissionNotifier, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssignmentService{repo: repo, audit: audit, notifier: notifier, validator: validate, logger: logger}
}

// List returns assignments matching the filter with a total count.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	assignments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, total, nil
}

// Get fetches a single assignment.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// Create registers a new, unpublished assignment.
func (s *AssignmentService) Create(ctx context.Context, req dto.CreateAssignmentRequest, caller *models.JWTClaims) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment := &models.Assignment{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   caller.UserID,
	}
	if req.MissionID != "" {
		assignment.MissionID = &req.MissionID
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// Update edits an assignment's title and description.
func (s *AssignmentService) Update(ctx context.Context, id string, req dto.UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	assignment.Title = req.Title
	assignment.Description = req.Description
	if err := s.repo.Update(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	return assignment, nil
}

// Publish marks an assignment as open for email submissions. Publishing an
// already-published assignment fails rather than moving the timestamp.
func (s *AssignmentService) Publish(ctx context.Context, id string) error {
	if err := s.repo.Publish(ctx, id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "assignment is missing or already published")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish assignment")
	}
	return nil
}

// Delete removes an assignment that has no recorded completions.
func (s *AssignmentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "assignment is missing or already has completions")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

// Completions returns the append-only completion log of an assignment.
func (s *AssignmentService) Completions(ctx context.Context, id string) ([]models.AssignmentCompletion, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	completions, err := s.repo.ListCompletions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list completions")
	}
	return completions, nil
}

// Submissions returns the audit trail of bulk email submissions.
func (s *AssignmentService) Submissions(ctx context.Context, id string) ([]models.EmailSubmission, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	submissions, err := s.repo.ListSubmissions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return submissions, nil
}

// AddEmails reconciles a bulk email submission into the assignment's
// completion log. Classification and persistence happen wholesale; the batch
// either lands entirely or the call fails and may be retried. Notification
// is best effort and never fails the request.
func (s *AssignmentService) AddEmails(ctx context.Context, id string, caller *models.JWTClaims, req dto.AddEmailsRequest) (*dto.AddEmailsResponse, error) {
	if len(req.EmailList) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email list must not be empty")
	}

	assignment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignment.PublishedAt == nil {
		return nil, appErrors.Clone(appErrors.ErrNotPublished, "Assignment must be published to receive email submissions")
	}

	existing, err := s.repo.ListCompletions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load completion log")
	}
	completedEmails := make([]string, 0, len(existing))
	for _, completion := range existing {
		completedEmails = append(completedEmails, completion.Email)
	}

	result := ProcessEmailList(req.EmailList, completedEmails)

	now := time.Now().UTC()
	completions := make([]models.AssignmentCompletion, 0, len(result.NewEmails))
	for _, email := range result.NewEmails {
		completions = append(completions, models.AssignmentCompletion{
			ID:              uuid.NewString(),
			AssignmentID:    id,
			Email:           email,
			EmailNormalized: NormalizeEmail(email),
			AddedAt:         now,
			AddedBy:         caller.UserID,
		})
	}

	status := models.SubmissionStatusCompleted
	if result.ErrorCount() > 0 {
		status = models.SubmissionStatusPartial
	}
	submission := &models.EmailSubmission{
		ID:             uuid.NewString(),
		AssignmentID:   id,
		SubmittedBy:    caller.UserID,
		SubmittedAt:    now,
		EmailList:      append([]string(nil), req.EmailList...),
		ProcessedCount: result.ProcessedCount(),
		SuccessCount:   result.SuccessCount(),
		ErrorCount:     result.ErrorCount(),
		DuplicateCount: result.DuplicateCount(),
		Status:         status,
	}

	if err := s.repo.RecordSubmission(ctx, completions, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist email submission")
	}

	if s.notifier != nil {
		if err := s.notifier.SubmissionRecorded(ctx, assignment, submission); err != nil {
			s.logger.Warn("failed to notify email submission",
				zap.String("assignment_id", id),
				zap.Error(err))
		}
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &caller.UserID,
			Action:     models.AuditActionEmailSubmission,
			Resource:   "assignment",
			ResourceID: &id,
		}); err != nil {
			s.logger.Warn("failed to record submission audit log", zap.Error(err))
		}
	}

	return &dto.AddEmailsResponse{
		ProcessedCount: result.ProcessedCount(),
		SuccessCount:   result.SuccessCount(),
		ErrorCount:     result.ErrorCount(),
		DuplicateCount: result.DuplicateCount(),
		NewEmails:      result.NewEmails,
	}, nil
}
