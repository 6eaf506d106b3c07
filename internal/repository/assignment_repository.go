package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mission-hub-api/internal/models"
)

// AssignmentRepository persists assignments and their completion log.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns assignments matching the provided filters.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	base := "FROM assignments WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.MissionID != "" {
		conditions = append(conditions, fmt.Sprintf("mission_id = $%d", len(args)+1))
		args = append(args, filter.MissionID)
	}
	if filter.Published != nil {
		if *filter.Published {
			conditions = append(conditions, "published_at IS NOT NULL")
		} else {
			conditions = append(conditions, "published_at IS NULL")
		}
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, title, description, mission_id, published_at, created_by, created_at, updated_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, size, offset)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}
	return assignments, total, nil
}

// FindByID fetches an assignment by ID.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT id, title, description, mission_id, published_at, created_by, created_at, updated_at FROM assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (id, title, description, mission_id, published_at, created_by, created_at, updated_at)
		VALUES (:id, :title, :description, :mission_id, :published_at, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update modifies title and description of an assignment.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET title = :title, description = :description, mission_id = :mission_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return nil
}

// Publish stamps published_at when not already set.
func (r *AssignmentRepository) Publish(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE assignments SET published_at = $2, updated_at = $2 WHERE id = $1 AND published_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("publish assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check published rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an assignment that has no completions yet.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM assignments WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM assignment_completions WHERE assignment_id = $1)`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListCompletions returns the append-only completion log for an assignment.
func (r *AssignmentRepository) ListCompletions(ctx context.Context, assignmentID string) ([]models.AssignmentCompletion, error) {
	const query = `SELECT id, assignment_id, email, email_normalized, added_at, added_by FROM assignment_completions WHERE assignment_id = $1 ORDER BY added_at ASC`
	var completions []models.AssignmentCompletion
	if err := r.db.SelectContext(ctx, &completions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return completions, nil
}

// RecordSubmission appends the completion rows and the submission audit
// entry in one transaction. The unique index on (assignment_id,
// email_normalized) plus ON CONFLICT DO NOTHING guarantees exactly-once
// appends even when two submissions race on the same assignment.
func (r *AssignmentRepository) RecordSubmission(ctx context.Context, completions []models.AssignmentCompletion, submission *models.EmailSubmission) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submission tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertCompletion = `INSERT INTO assignment_completions (id, assignment_id, email, email_normalized, added_at, added_by)
		VALUES (:id, :assignment_id, :email, :email_normalized, :added_at, :added_by)
		ON CONFLICT (assignment_id, email_normalized) DO NOTHING`
	for i := range completions {
		if completions[i].ID == "" {
			completions[i].ID = uuid.NewString()
		}
		if _, err := tx.NamedExecContext(ctx, insertCompletion, completions[i]); err != nil {
			return fmt.Errorf("insert completion: %w", err)
		}
	}

	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	const insertSubmission = `INSERT INTO assignment_email_submissions (id, assignment_id, submitted_by, submitted_at, email_list, processed_count, success_count, error_count, duplicate_count, status)
		VALUES (:id, :assignment_id, :submitted_by, :submitted_at, :email_list, :processed_count, :success_count, :error_count, :duplicate_count, :status)`
	if _, err := tx.NamedExecContext(ctx, insertSubmission, submission); err != nil {
		return fmt.Errorf("insert email submission: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submission tx: %w", err)
	}
	return nil
}

// ListSubmissions returns the submission audit trail for an assignment.
func (r *AssignmentRepository) ListSubmissions(ctx context.Context, assignmentID string) ([]models.EmailSubmission, error) {
	const query = `SELECT id, assignment_id, submitted_by, submitted_at, email_list, processed_count, success_count, error_count, duplicate_count, status FROM assignment_email_submissions WHERE assignment_id = $1 ORDER BY submitted_at DESC`
	var submissions []models.EmailSubmission
	if err := r.db.SelectContext(ctx, &submissions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list email submissions: %w", err)
	}
	return submissions, nil
}
