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

const missionMentorColumns = `id, mission_id, mentor_id, role, specialization, assigned_students, current_workload, max_students, status, created_at, updated_at`

// MissionMentorRepository persists mentor-to-mission assignment records.
type MissionMentorRepository struct {
	db *sqlx.DB
}

// NewMissionMentorRepository constructs the repository.
func NewMissionMentorRepository(db *sqlx.DB) *MissionMentorRepository {
	return &MissionMentorRepository{db: db}
}

// ListByMission returns all mentor records for a mission.
func (r *MissionMentorRepository) ListByMission(ctx context.Context, missionID string) ([]models.MissionMentor, error) {
	query := fmt.Sprintf(`SELECT %s FROM mission_mentors WHERE mission_id = $1 ORDER BY created_at ASC`, missionMentorColumns)
	var mentors []models.MissionMentor
	if err := r.db.SelectContext(ctx, &mentors, query, missionID); err != nil {
		return nil, fmt.Errorf("list mission mentors: %w", err)
	}
	return mentors, nil
}

// FindByID fetches a mentor record by its ID.
func (r *MissionMentorRepository) FindByID(ctx context.Context, id string) (*models.MissionMentor, error) {
	query := fmt.Sprintf(`SELECT %s FROM mission_mentors WHERE id = $1`, missionMentorColumns)
	var mentor models.MissionMentor
	if err := r.db.GetContext(ctx, &mentor, query, id); err != nil {
		return nil, err
	}
	return &mentor, nil
}

// FindByMissionAndMentor fetches the record for a (mission, mentor) pair.
func (r *MissionMentorRepository) FindByMissionAndMentor(ctx context.Context, missionID, mentorID string) (*models.MissionMentor, error) {
	query := fmt.Sprintf(`SELECT %s FROM mission_mentors WHERE mission_id = $1 AND mentor_id = $2`, missionMentorColumns)
	var mentor models.MissionMentor
	if err := r.db.GetContext(ctx, &mentor, query, missionID, mentorID); err != nil {
		return nil, err
	}
	return &mentor, nil
}

// ExistsForMission reports whether the mentor already holds a record in the
// mission. Group creation validates against this.
func (r *MissionMentorRepository) ExistsForMission(ctx context.Context, missionID, mentorID string) (bool, error) {
	const query = `SELECT 1 FROM mission_mentors WHERE mission_id = $1 AND mentor_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, missionID, mentorID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check mission mentor: %w", err)
	}
	return true, nil
}

// Create inserts a new mentor record for a mission.
func (r *MissionMentorRepository) Create(ctx context.Context, mentor *models.MissionMentor) error {
	if mentor.ID == "" {
		mentor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if mentor.CreatedAt.IsZero() {
		mentor.CreatedAt = now
	}
	mentor.UpdatedAt = now
	if mentor.Status == "" {
		mentor.Status = models.MentorStatusActive
	}
	if mentor.MaxStudents <= 0 {
		mentor.MaxStudents = models.DefaultMaxStudents
	}
	if mentor.AssignedStudents == nil {
		mentor.AssignedStudents = pq.StringArray{}
	}
	mentor.CurrentWorkload = len(mentor.AssignedStudents)
	const query = `INSERT INTO mission_mentors (id, mission_id, mentor_id, role, specialization, assigned_students, current_workload, max_students, status, created_at, updated_at)
		VALUES (:id, :mission_id, :mentor_id, :role, :specialization, :assigned_students, :current_workload, :max_students, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mentor); err != nil {
		return fmt.Errorf("create mission mentor: %w", err)
	}
	return nil
}

// UpdateProfile modifies role, specialization and status.
func (r *MissionMentorRepository) UpdateProfile(ctx context.Context, id, role, specialization string, status models.MentorStatus) error {
	const query = `UPDATE mission_mentors SET role = COALESCE(NULLIF($2, ''), role), specialization = COALESCE(NULLIF($3, ''), specialization), status = COALESCE(NULLIF($4, ''), status), updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, role, specialization, string(status), time.Now().UTC()); err != nil {
		return fmt.Errorf("update mission mentor profile: %w", err)
	}
	return nil
}

// UpdateStatus sets the mentor record's status.
func (r *MissionMentorRepository) UpdateStatus(ctx context.Context, id string, status models.MentorStatus) error {
	const query = `UPDATE mission_mentors SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update mission mentor status: %w", err)
	}
	return nil
}

// UpdateCapacity raises or lowers max_students. Lowering below the current
// workload is rejected so the capacity invariant stays intact.
func (r *MissionMentorRepository) UpdateCapacity(ctx context.Context, id string, maxStudents int) error {
	const query = `UPDATE mission_mentors SET max_students = $2, updated_at = $3 WHERE id = $1 AND current_workload <= $2`
	result, err := r.db.ExecContext(ctx, query, id, maxStudents, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update mission mentor capacity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check capacity rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetAssignedStudents replaces the assigned student set, keeping
// current_workload equal to the array length. The capacity guard rides the
// same UPDATE so a concurrent write cannot push the row past its cap;
// sql.ErrNoRows signals the guard rejected the write.
func (r *MissionMentorRepository) SetAssignedStudents(ctx context.Context, id string, studentIDs []string) error {
	return setAssignedStudentsTx(ctx, r.db, id, studentIDs)
}

// TransferStudents applies new student sets to the source and destination
// mentor records inside a single transaction: both writes apply or neither
// does. The destination write carries the capacity guard.
func (r *MissionMentorRepository) TransferStudents(ctx context.Context, fromID string, fromStudents []string, toID string, toStudents []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := setAssignedStudentsTx(ctx, tx, toID, toStudents); err != nil {
		return err
	}
	if err := setAssignedStudentsTx(ctx, tx, fromID, fromStudents); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer tx: %w", err)
	}
	return nil
}

// Delete removes a mentor record; guarded to zero-workload records only.
func (r *MissionMentorRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM mission_mentors WHERE id = $1 AND current_workload = 0`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete mission mentor: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted mentor rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func setAssignedStudentsTx(ctx context.Context, ext sqlx.ExtContext, id string, studentIDs []string) error {
	const query = `UPDATE mission_mentors SET
			assigned_students = $2::text[],
			current_workload = cardinality($2::text[]),
			updated_at = $3
		WHERE id = $1 AND cardinality($2::text[]) <= max_students`
	result, err := ext.ExecContext(ctx, query, id, pq.Array(studentIDs), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set mentor students: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check mentor student rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
