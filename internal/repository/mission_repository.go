package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/mission-hub-api/internal/models"
)

// MissionRepository persists missions and their student rosters.
type MissionRepository struct {
	db *sqlx.DB
}

// NewMissionRepository constructs a MissionRepository.
func NewMissionRepository(db *sqlx.DB) *MissionRepository {
	return &MissionRepository{db: db}
}

// List returns missions matching the provided filters.
func (r *MissionRepository) List(ctx context.Context, filter models.MissionFilter) ([]models.Mission, int, error) {
	base := "FROM missions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Batch != "" {
		conditions = append(conditions, fmt.Sprintf("batch = $%d", len(args)+1))
		args = append(args, filter.Batch)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
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

	query := fmt.Sprintf(`SELECT id, name, description, batch, semester, status, created_by, created_at, updated_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, size, offset)
	var missions []models.Mission
	if err := r.db.SelectContext(ctx, &missions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list missions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count missions: %w", err)
	}
	return missions, total, nil
}

// FindByID fetches a mission by ID.
func (r *MissionRepository) FindByID(ctx context.Context, id string) (*models.Mission, error) {
	const query = `SELECT id, name, description, batch, semester, status, created_by, created_at, updated_at FROM missions WHERE id = $1`
	var mission models.Mission
	if err := r.db.GetContext(ctx, &mission, query, id); err != nil {
		return nil, err
	}
	return &mission, nil
}

// Create inserts a new mission.
func (r *MissionRepository) Create(ctx context.Context, mission *models.Mission) error {
	if mission.ID == "" {
		mission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if mission.CreatedAt.IsZero() {
		mission.CreatedAt = now
	}
	mission.UpdatedAt = now
	if mission.Status == "" {
		mission.Status = models.MissionStatusDraft
	}
	const query = `INSERT INTO missions (id, name, description, batch, semester, status, created_by, created_at, updated_at)
		VALUES (:id, :name, :description, :batch, :semester, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mission); err != nil {
		return fmt.Errorf("create mission: %w", err)
	}
	return nil
}

// Update modifies an existing mission.
func (r *MissionRepository) Update(ctx context.Context, mission *models.Mission) error {
	mission.UpdatedAt = time.Now().UTC()
	const query = `UPDATE missions SET name = :name, description = :description, batch = :batch, semester = :semester, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, mission); err != nil {
		return fmt.Errorf("update mission: %w", err)
	}
	return nil
}

// Archive marks a mission archived without removing roster history.
func (r *MissionRepository) Archive(ctx context.Context, id string) error {
	const query = `UPDATE missions SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.MissionStatusArchived, time.Now().UTC()); err != nil {
		return fmt.Errorf("archive mission: %w", err)
	}
	return nil
}

// ListStudents returns the mission's roster rows.
func (r *MissionRepository) ListStudents(ctx context.Context, missionID string) ([]models.MissionStudent, error) {
	const query = `SELECT id, mission_id, student_id, status, progress, mentor_ids, primary_mentor_id, mentorship_group_id, group_assigned_at, group_assigned_by, joined_at
		FROM mission_students WHERE mission_id = $1 ORDER BY joined_at ASC`
	var students []models.MissionStudent
	if err := r.db.SelectContext(ctx, &students, query, missionID); err != nil {
		return nil, fmt.Errorf("list mission students: %w", err)
	}
	return students, nil
}

// FindStudent returns a single roster row for (missionID, studentID).
func (r *MissionRepository) FindStudent(ctx context.Context, missionID, studentID string) (*models.MissionStudent, error) {
	const query = `SELECT id, mission_id, student_id, status, progress, mentor_ids, primary_mentor_id, mentorship_group_id, group_assigned_at, group_assigned_by, joined_at
		FROM mission_students WHERE mission_id = $1 AND student_id = $2`
	var student models.MissionStudent
	if err := r.db.GetContext(ctx, &student, query, missionID, studentID); err != nil {
		return nil, err
	}
	return &student, nil
}

// AddStudent enrolls a student in a mission.
func (r *MissionRepository) AddStudent(ctx context.Context, student *models.MissionStudent) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.JoinedAt.IsZero() {
		student.JoinedAt = time.Now().UTC()
	}
	if student.Status == "" {
		student.Status = "ENROLLED"
	}
	if student.MentorIDs == nil {
		student.MentorIDs = pq.StringArray{}
	}
	const query = `INSERT INTO mission_students (id, mission_id, student_id, status, progress, mentor_ids, primary_mentor_id, mentorship_group_id, group_assigned_at, group_assigned_by, joined_at)
		VALUES (:id, :mission_id, :student_id, :status, :progress, :mentor_ids, :primary_mentor_id, :mentorship_group_id, :group_assigned_at, :group_assigned_by, :joined_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("add mission student: %w", err)
	}
	return nil
}

// RemoveStudent drops a student from the mission roster.
func (r *MissionRepository) RemoveStudent(ctx context.Context, missionID, studentID string) error {
	const query = `DELETE FROM mission_students WHERE mission_id = $1 AND student_id = $2`
	result, err := r.db.ExecContext(ctx, query, missionID, studentID)
	if err != nil {
		return fmt.Errorf("remove mission student: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check removed student rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddStudentMentor appends a mentor to the student's denormalized mentor
// list and optionally promotes it to primary. Set semantics on the array.
func (r *MissionRepository) AddStudentMentor(ctx context.Context, missionID, studentID, mentorID string, primary bool) error {
	return r.addStudentMentor(ctx, r.db, missionID, studentID, mentorID, primary)
}

// RemoveStudentMentor removes a mentor from the student's mentor list and
// clears primary_mentor_id when it pointed at the removed mentor.
func (r *MissionRepository) RemoveStudentMentor(ctx context.Context, missionID, studentID, mentorID string) error {
	return r.removeStudentMentor(ctx, r.db, missionID, studentID, mentorID)
}

// SwapStudentMentor atomically replaces fromMentorID with toMentorID on the
// student's mentor list and points primary_mentor_id at the destination.
func (r *MissionRepository) SwapStudentMentor(ctx context.Context, missionID, studentID, fromMentorID, toMentorID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mentor swap tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := r.removeStudentMentor(ctx, tx, missionID, studentID, fromMentorID); err != nil {
		return err
	}
	if err := r.addStudentMentor(ctx, tx, missionID, studentID, toMentorID, true); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mentor swap tx: %w", err)
	}
	return nil
}

// ClearGroupFromStudents wipes group affiliation fields from every roster
// row referencing the group. Returns the number of cleaned rows.
func (r *MissionRepository) ClearGroupFromStudents(ctx context.Context, missionID, groupID string) (int, error) {
	const query = `UPDATE mission_students SET mentorship_group_id = NULL, group_assigned_at = NULL, group_assigned_by = NULL
		WHERE mission_id = $1 AND mentorship_group_id = $2`
	result, err := r.db.ExecContext(ctx, query, missionID, groupID)
	if err != nil {
		return 0, fmt.Errorf("clear group from students: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check cleared group rows: %w", err)
	}
	return int(affected), nil
}

// ClearGroupFromStudent clears group affiliation for one student only.
func (r *MissionRepository) ClearGroupFromStudent(ctx context.Context, missionID, groupID, studentID string) error {
	const query = `UPDATE mission_students SET mentorship_group_id = NULL, group_assigned_at = NULL, group_assigned_by = NULL
		WHERE mission_id = $1 AND mentorship_group_id = $2 AND student_id = $3`
	result, err := r.db.ExecContext(ctx, query, missionID, groupID, studentID)
	if err != nil {
		return fmt.Errorf("clear group from student: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check cleared student rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AssignGroupToStudent stamps group affiliation on a roster row.
func (r *MissionRepository) AssignGroupToStudent(ctx context.Context, missionID, groupID, studentID, assignedBy string) error {
	const query = `UPDATE mission_students SET mentorship_group_id = $2, group_assigned_at = $4, group_assigned_by = $5
		WHERE mission_id = $1 AND student_id = $3`
	result, err := r.db.ExecContext(ctx, query, missionID, groupID, studentID, time.Now().UTC(), assignedBy)
	if err != nil {
		return fmt.Errorf("assign group to student: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check group assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListStudentsByGroup returns roster rows affiliated with the group.
func (r *MissionRepository) ListStudentsByGroup(ctx context.Context, missionID, groupID string) ([]models.MissionStudent, error) {
	const query = `SELECT id, mission_id, student_id, status, progress, mentor_ids, primary_mentor_id, mentorship_group_id, group_assigned_at, group_assigned_by, joined_at
		FROM mission_students WHERE mission_id = $1 AND mentorship_group_id = $2`
	var students []models.MissionStudent
	if err := r.db.SelectContext(ctx, &students, query, missionID, groupID); err != nil {
		return nil, fmt.Errorf("list students by group: %w", err)
	}
	return students, nil
}

func (r *MissionRepository) addStudentMentor(ctx context.Context, ext sqlx.ExtContext, missionID, studentID, mentorID string, primary bool) error {
	query := `UPDATE mission_students SET mentor_ids = array_append(mentor_ids, $3)
		WHERE mission_id = $1 AND student_id = $2 AND NOT ($3 = ANY(mentor_ids))`
	if _, err := ext.ExecContext(ctx, query, missionID, studentID, mentorID); err != nil {
		return fmt.Errorf("append student mentor: %w", err)
	}
	if primary {
		const promote = `UPDATE mission_students SET primary_mentor_id = $3 WHERE mission_id = $1 AND student_id = $2`
		if _, err := ext.ExecContext(ctx, promote, missionID, studentID, mentorID); err != nil {
			return fmt.Errorf("set primary mentor: %w", err)
		}
	}
	return nil
}

func (r *MissionRepository) removeStudentMentor(ctx context.Context, ext sqlx.ExtContext, missionID, studentID, mentorID string) error {
	const query = `UPDATE mission_students SET mentor_ids = array_remove(mentor_ids, $3),
		primary_mentor_id = CASE WHEN primary_mentor_id = $3 THEN NULL ELSE primary_mentor_id END
		WHERE mission_id = $1 AND student_id = $2`
	if _, err := ext.ExecContext(ctx, query, missionID, studentID, mentorID); err != nil {
		return fmt.Errorf("remove student mentor: %w", err)
	}
	return nil
}
