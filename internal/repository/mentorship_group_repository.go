package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/mission-hub-api/internal/models"
)

const mentorshipGroupColumns = `id, mission_id, name, description, mentor_ids, created_by, created_at, updated_at`

// MentorshipGroupRepository persists named mentor/student groups.
type MentorshipGroupRepository struct {
	db *sqlx.DB
}

// NewMentorshipGroupRepository constructs the repository.
func NewMentorshipGroupRepository(db *sqlx.DB) *MentorshipGroupRepository {
	return &MentorshipGroupRepository{db: db}
}

// ListByMission returns all groups scoped to a mission.
func (r *MentorshipGroupRepository) ListByMission(ctx context.Context, missionID string) ([]models.MentorshipGroup, error) {
	query := fmt.Sprintf(`SELECT %s FROM mentorship_groups WHERE mission_id = $1 ORDER BY created_at ASC`, mentorshipGroupColumns)
	var groups []models.MentorshipGroup
	if err := r.db.SelectContext(ctx, &groups, query, missionID); err != nil {
		return nil, fmt.Errorf("list mentorship groups: %w", err)
	}
	return groups, nil
}

// FindByID fetches a group by ID.
func (r *MentorshipGroupRepository) FindByID(ctx context.Context, id string) (*models.MentorshipGroup, error) {
	query := fmt.Sprintf(`SELECT %s FROM mentorship_groups WHERE id = $1`, mentorshipGroupColumns)
	var group models.MentorshipGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// ExistsByName checks for an exact (case-sensitive) name clash within the
// mission, optionally excluding a group ID during updates.
func (r *MentorshipGroupRepository) ExistsByName(ctx context.Context, missionID, name, excludeID string) (bool, error) {
	query := `SELECT 1 FROM mentorship_groups WHERE mission_id = $1 AND name = $2`
	args := []interface{}{missionID, name}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check group name: %w", err)
	}
	return true, nil
}

// Create inserts a new mentorship group.
func (r *MentorshipGroupRepository) Create(ctx context.Context, group *models.MentorshipGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now
	if group.MentorIDs == nil {
		group.MentorIDs = pq.StringArray{}
	}
	const query = `INSERT INTO mentorship_groups (id, mission_id, name, description, mentor_ids, created_by, created_at, updated_at)
		VALUES (:id, :mission_id, :name, :description, :mentor_ids, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create mentorship group: %w", err)
	}
	return nil
}

// Update modifies a group's name, description and mentor list.
func (r *MentorshipGroupRepository) Update(ctx context.Context, group *models.MentorshipGroup) error {
	group.UpdatedAt = time.Now().UTC()
	const query = `UPDATE mentorship_groups SET name = :name, description = :description, mentor_ids = :mentor_ids, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("update mentorship group: %w", err)
	}
	return nil
}

// Delete removes the group row.
func (r *MentorshipGroupRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM mentorship_groups WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete mentorship group: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted group rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
