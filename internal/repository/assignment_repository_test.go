package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mission-hub-api/internal/models"
)

func newAssignmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func assignmentColumns() []string {
	return []string{"id", "title", "description", "mission_id", "published_at", "created_by", "created_at", "updated_at"}
}

func TestAssignmentRepositoryListFiltersByMission(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows(assignmentColumns()).
		AddRow("asg-1", "Week 1 Lab", "", "mission-1", nil, "admin-1", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, title, description, mission_id, published_at, created_by, created_at, updated_at FROM assignments WHERE 1=1 AND mission_id").
		WithArgs("mission-1").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM assignments WHERE 1=1 AND mission_id`).
		WithArgs("mission-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	assignments, total, err := repo.List(context.Background(), models.AssignmentFilter{MissionID: "mission-1"})
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryPublishOnlyOnce(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET published_at = $2, updated_at = $2 WHERE id = $1 AND published_at IS NULL")).
		WithArgs("asg-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Publish(context.Background(), "asg-1", at))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET published_at = $2, updated_at = $2 WHERE id = $1 AND published_at IS NULL")).
		WithArgs("asg-1", at).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Publish(context.Background(), "asg-1", at)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteBlockedByCompletions(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("DELETE FROM assignments WHERE id").
		WithArgs("asg-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "asg-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryRecordSubmission(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO assignment_completions").
		WithArgs(sqlmock.AnyArg(), "asg-1", "alice@example.com", "alice@example.com", sqlmock.AnyArg(), "mentor-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO assignment_completions").
		WithArgs(sqlmock.AnyArg(), "asg-1", "Bob@Example.com", "bob@example.com", sqlmock.AnyArg(), "mentor-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO assignment_email_submissions").
		WithArgs(sqlmock.AnyArg(), "asg-1", "mentor-1", sqlmock.AnyArg(), sqlmock.AnyArg(), 3, 2, 1, 0, "partial").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	now := time.Now().UTC()
	completions := []models.AssignmentCompletion{
		{AssignmentID: "asg-1", Email: "alice@example.com", EmailNormalized: "alice@example.com", AddedAt: now, AddedBy: "mentor-1"},
		{AssignmentID: "asg-1", Email: "Bob@Example.com", EmailNormalized: "bob@example.com", AddedAt: now, AddedBy: "mentor-1"},
	}
	submission := &models.EmailSubmission{
		AssignmentID:   "asg-1",
		SubmittedBy:    "mentor-1",
		SubmittedAt:    now,
		EmailList:      pq.StringArray{"alice@example.com", "Bob@Example.com", "broken"},
		ProcessedCount: 3,
		SuccessCount:   2,
		ErrorCount:     1,
		DuplicateCount: 0,
		Status:         models.SubmissionStatusPartial,
	}
	require.NoError(t, repo.RecordSubmission(context.Background(), completions, submission))
	require.NotEmpty(t, completions[0].ID)
	require.NotEmpty(t, submission.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryRecordSubmissionRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO assignment_completions").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	completions := []models.AssignmentCompletion{
		{AssignmentID: "asg-1", Email: "alice@example.com", EmailNormalized: "alice@example.com", AddedBy: "mentor-1"},
	}
	submission := &models.EmailSubmission{AssignmentID: "asg-1", SubmittedBy: "mentor-1", Status: models.SubmissionStatusCompleted}
	err := repo.RecordSubmission(context.Background(), completions, submission)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
