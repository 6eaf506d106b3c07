package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newReportingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReportingRepositoryCompletionRowsMissionWide(t *testing.T) {
	db, mock, cleanup := newReportingRepoMock(t)
	defer cleanup()
	repo := NewReportingRepository(db)

	rows := sqlmock.NewRows([]string{"assignment_id", "assignment_title", "email", "email_normalized", "added_at", "added_by"}).
		AddRow("asg-1", "Week 1 Lab", "alice@example.com", "alice@example.com", time.Now(), "mentor-1").
		AddRow("asg-2", "Week 2 Lab", "bob@example.com", "bob@example.com", time.Now(), "mentor-1")
	mock.ExpectQuery("SELECT c.assignment_id, a.title AS assignment_title").
		WithArgs("mission-1").
		WillReturnRows(rows)

	result, err := repo.CompletionRows(context.Background(), "mission-1", "")
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, "Week 1 Lab", result[0].AssignmentTitle)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportingRepositoryCompletionRowsFiltersByAssignment(t *testing.T) {
	db, mock, cleanup := newReportingRepoMock(t)
	defer cleanup()
	repo := NewReportingRepository(db)

	rows := sqlmock.NewRows([]string{"assignment_id", "assignment_title", "email", "email_normalized", "added_at", "added_by"}).
		AddRow("asg-1", "Week 1 Lab", "alice@example.com", "alice@example.com", time.Now(), "mentor-1")
	mock.ExpectQuery(`AND c.assignment_id = \$2`).
		WithArgs("mission-1", "asg-1").
		WillReturnRows(rows)

	result, err := repo.CompletionRows(context.Background(), "mission-1", "asg-1")
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportingRepositoryRosterRowsNullableJoins(t *testing.T) {
	db, mock, cleanup := newReportingRepoMock(t)
	defer cleanup()
	repo := NewReportingRepository(db)

	joined := time.Now()
	rows := sqlmock.NewRows([]string{"student_id", "full_name", "email", "status", "group_name", "primary_mentor", "joined_at"}).
		AddRow("stu-1", "Alice Tan", "alice@example.com", "ENROLLED", "Backend Squad", "Mentor One", joined).
		AddRow("stu-2", "Bob Lim", "bob@example.com", "ENROLLED", nil, nil, joined)
	mock.ExpectQuery("FROM mission_students ms").
		WithArgs("mission-1").
		WillReturnRows(rows)

	result, err := repo.RosterRows(context.Background(), "mission-1")
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.NotNil(t, result[0].GroupName)
	require.Nil(t, result[1].GroupName)
	require.Nil(t, result[1].PrimaryMentor)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportingRepositorySummaryMetrics(t *testing.T) {
	db, mock, cleanup := newReportingRepoMock(t)
	defer cleanup()
	repo := NewReportingRepository(db)

	rows := sqlmock.NewRows([]string{"mission_id", "mission_name", "student_count", "mentor_count", "group_count", "assignment_count", "published_assignments", "completion_count"}).
		AddRow("mission-1", "Batch 12 Bootcamp", 24, 4, 3, 10, 8, 112)
	mock.ExpectQuery("FROM missions m WHERE m.id").
		WithArgs("mission-1").
		WillReturnRows(rows)

	metrics, err := repo.SummaryMetrics(context.Background(), "mission-1")
	require.NoError(t, err)
	require.Equal(t, 24, metrics.StudentCount)
	require.Equal(t, 8, metrics.PublishedAssignments)
	require.NoError(t, mock.ExpectationsWereMet())
}
