package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mission-hub-api/internal/models"
)

const invitationColumns = `id, user_id, email, status, sent_at, error, created_at`

// InvitationRepository records invitation emails and their delivery outcome.
type InvitationRepository struct {
	db *sqlx.DB
}

// NewInvitationRepository constructs the repository.
func NewInvitationRepository(db *sqlx.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// ListByUser returns a user's invitation history, newest first.
func (r *InvitationRepository) ListByUser(ctx context.Context, userID string) ([]models.Invitation, error) {
	query := fmt.Sprintf(`SELECT %s FROM invitations WHERE user_id = $1 ORDER BY created_at DESC`, invitationColumns)
	var invitations []models.Invitation
	if err := r.db.SelectContext(ctx, &invitations, query, userID); err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return invitations, nil
}

// Create inserts a pending invitation row.
func (r *InvitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	if invitation.ID == "" {
		invitation.ID = uuid.NewString()
	}
	if invitation.CreatedAt.IsZero() {
		invitation.CreatedAt = time.Now().UTC()
	}
	if invitation.Status == "" {
		invitation.Status = models.InvitationStatusPending
	}
	const query = `INSERT INTO invitations (id, user_id, email, status, sent_at, error, created_at)
		VALUES (:id, :user_id, :email, :status, :sent_at, :error, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, invitation); err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

// MarkSent records a successful delivery.
func (r *InvitationRepository) MarkSent(ctx context.Context, id string) error {
	const query = `UPDATE invitations SET status = $2, sent_at = $3, error = '' WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.InvitationStatusSent, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark invitation sent: %w", err)
	}
	return nil
}

// MarkFailed records a delivery failure with its reason.
func (r *InvitationRepository) MarkFailed(ctx context.Context, id, reason string) error {
	const query = `UPDATE invitations SET status = $2, error = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.InvitationStatusFailed, reason); err != nil {
		return fmt.Errorf("mark invitation failed: %w", err)
	}
	return nil
}
