package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mission-hub-api/internal/models"
)

// ReportingRepository runs the read-only aggregate queries behind exports.
type ReportingRepository struct {
	db *sqlx.DB
}

// NewReportingRepository constructs the repository.
func NewReportingRepository(db *sqlx.DB) *ReportingRepository {
	return &ReportingRepository{db: db}
}

// CompletionRows lists completion entries for an assignment, or for every
// assignment of a mission when assignmentID is empty.
func (r *ReportingRepository) CompletionRows(ctx context.Context, missionID, assignmentID string) ([]models.CompletionReportRow, error) {
	query := `SELECT c.assignment_id, a.title AS assignment_title, c.email, c.email_normalized, c.added_at, c.added_by
FROM assignment_completions c
JOIN assignments a ON a.id = c.assignment_id
WHERE a.mission_id = $1`
	args := []interface{}{missionID}
	if assignmentID != "" {
		args = append(args, assignmentID)
		query += fmt.Sprintf(" AND c.assignment_id = $%d", len(args))
	}
	query += " ORDER BY a.title ASC, c.added_at ASC"

	var rows []models.CompletionReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query completion rows: %w", err)
	}
	return rows, nil
}

// RosterRows lists enrolled students with their group and primary mentor names.
func (r *ReportingRepository) RosterRows(ctx context.Context, missionID string) ([]models.RosterReportRow, error) {
	const query = `SELECT ms.student_id, u.full_name, u.email, ms.status,
	g.name AS group_name, m.full_name AS primary_mentor, ms.joined_at
FROM mission_students ms
JOIN users u ON u.id = ms.student_id
LEFT JOIN mentorship_groups g ON g.id = ms.mentorship_group_id
LEFT JOIN users m ON m.id = ms.primary_mentor_id
WHERE ms.mission_id = $1
ORDER BY u.full_name ASC`

	var rows []models.RosterReportRow
	if err := r.db.SelectContext(ctx, &rows, query, missionID); err != nil {
		return nil, fmt.Errorf("query roster rows: %w", err)
	}
	return rows, nil
}

// MentorWorkloadRows summarizes each mentor binding of a mission.
func (r *ReportingRepository) MentorWorkloadRows(ctx context.Context, missionID string) ([]models.MentorWorkloadRow, error) {
	const query = `SELECT mm.mentor_id, u.full_name AS mentor_name, mm.role, mm.status,
	mm.current_workload AS assigned_count, mm.max_students
FROM mission_mentors mm
JOIN users u ON u.id = mm.mentor_id
WHERE mm.mission_id = $1
ORDER BY mm.current_workload DESC, u.full_name ASC`

	var rows []models.MentorWorkloadRow
	if err := r.db.SelectContext(ctx, &rows, query, missionID); err != nil {
		return nil, fmt.Errorf("query mentor workload rows: %w", err)
	}
	return rows, nil
}

// SummaryMetrics aggregates the headline counts for one mission.
func (r *ReportingRepository) SummaryMetrics(ctx context.Context, missionID string) (*models.MissionSummaryMetrics, error) {
	const query = `SELECT m.id AS mission_id, m.name AS mission_name,
	(SELECT COUNT(*) FROM mission_students ms WHERE ms.mission_id = m.id) AS student_count,
	(SELECT COUNT(*) FROM mission_mentors mm WHERE mm.mission_id = m.id) AS mentor_count,
	(SELECT COUNT(*) FROM mentorship_groups g WHERE g.mission_id = m.id) AS group_count,
	(SELECT COUNT(*) FROM assignments a WHERE a.mission_id = m.id) AS assignment_count,
	(SELECT COUNT(*) FROM assignments a WHERE a.mission_id = m.id AND a.published_at IS NOT NULL) AS published_assignments,
	(SELECT COUNT(*) FROM assignment_completions c JOIN assignments a ON a.id = c.assignment_id WHERE a.mission_id = m.id) AS completion_count
FROM missions m WHERE m.id = $1`

	var metrics models.MissionSummaryMetrics
	if err := r.db.GetContext(ctx, &metrics, query, missionID); err != nil {
		return nil, fmt.Errorf("query mission summary metrics: %w", err)
	}
	return &metrics, nil
}
