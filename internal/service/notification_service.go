package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/mission-hub-api/internal/models"
	appErrors "github.com/noah-isme/mission-hub-api/pkg/errors"
	"github.com/noah-isme/mission-hub-api/pkg/mailer"
)

type notificationRepository interface {
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]models.Notification, error)
	Create(ctx context.Context, notification *models.Notification) error
	CreateBatch(ctx context.Context, notifications []models.Notification) error
	MarkRead(ctx context.Context, id, recipientID string) error
	CountUnread(ctx context.Context, recipientID string) (int, error)
}

type notificationUserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// NotificationService stores in-app notifications and optionally mirrors
// them by email. Every producer treats it as best effort.
type NotificationService struct {
	repo      notificationRepository
	users     notificationUserLookup
	mail      mailer.Mailer
	emailCopy bool
	logger    *zap.Logger
}

// NewNotificationService constructs a NotificationService instance.
func NewNotificationService(repo notificationRepository, users notificationUserLookup, mail mailer.Mailer, emailCopy bool, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, users: users, mail: mail, emailCopy: emailCopy, logger: logger}
}

// ListForUser returns a user's notifications.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	notifications, err := s.repo.ListByRecipient(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flags one notification as read for its recipient.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// UnreadCount returns the number of unread notifications for a user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// SubmissionRecorded notifies the assignment owner that a bulk email
// submission landed.
func (s *NotificationService) SubmissionRecorded(ctx context.Context, assignment *models.Assignment, submission *models.EmailSubmission) error {
	subject := fmt.Sprintf("New email submission on %q", assignment.Title)
	body := fmt.Sprintf("%d emails processed: %d new, %d duplicates, %d invalid.",
		submission.ProcessedCount, submission.SuccessCount, submission.DuplicateCount, submission.ErrorCount)
	return s.notify(ctx, assignment.CreatedBy, models.NotificationTypeEmailSubmission, subject, body)
}

// MentorAssigned notifies a mentor about newly assigned students.
func (s *NotificationService) MentorAssigned(ctx context.Context, mentorID string, assignedCount int) error {
	subject := "Students assigned to you"
	body := fmt.Sprintf("%d students were added to your mentoring load.", assignedCount)
	return s.notify(ctx, mentorID, models.NotificationTypeMentorAssigned, subject, body)
}

// GroupChanged notifies affected users about a mentorship group change.
func (s *NotificationService) GroupChanged(ctx context.Context, recipientIDs []string, groupName, change string) error {
	notifications := make([]models.Notification, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		notifications = append(notifications, models.Notification{
			RecipientID: id,
			Type:        models.NotificationTypeGroupChanged,
			Subject:     fmt.Sprintf("Mentorship group %q %s", groupName, change),
			Body:        fmt.Sprintf("Your mentorship group %q was %s.", groupName, change),
		})
	}
	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		return fmt.Errorf("store group notifications: %w", err)
	}
	return nil
}

func (s *NotificationService) notify(ctx context.Context, recipientID, kind, subject, body string) error {
	notification := &models.Notification{
		RecipientID: recipientID,
		Type:        kind,
		Subject:     subject,
		Body:        body,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	if !s.emailCopy || s.mail == nil || s.users == nil {
		return nil
	}
	user, err := s.users.FindByID(ctx, recipientID)
	if err != nil {
		s.logger.Warn("skipping notification email, recipient lookup failed",
			zap.String("recipient_id", recipientID), zap.Error(err))
		return nil
	}
	if err := s.mail.Send(ctx, mailer.Message{
		ToName:    user.FullName,
		ToAddress: user.Email,
		Subject:   subject,
		TextBody:  body,
	}); err != nil {
		s.logger.Warn("failed to send notification email",
			zap.String("recipient_id", recipientID), zap.Error(err))
	}
	return nil
}
