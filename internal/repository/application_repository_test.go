package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtc-portal/enrollment-api/internal/models"
)

func newApplicationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestApplicationRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("INSERT INTO assessment_applications").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	application := &models.AssessmentApplication{AssessmentID: "asmt-1", FullName: "Jane Cruz", Email: "jane@example.com"}
	err := repo.Create(context.Background(), application)
	require.NoError(t, err)
	assert.NotEmpty(t, application.ID)
	assert.Equal(t, models.ApplicationStatusPending, application.Status)
	assert.False(t, application.SubmittedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assessment_applications SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("app-1", models.ApplicationStatusApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "app-1", models.ApplicationStatusApproved)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryListAllStableOrder(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	submitted := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "assessment_id", "student_id", "full_name", "school_company", "email", "mobile", "address",
		"status", "is_online_payment", "sender_number", "reference_number", "payment_proof", "submitted_at", "updated_at",
		"assessment_code", "assessment_title", "assessment_fee", "student_name",
	}).
		AddRow("app-1", "asmt-1", nil, "Jane Cruz", "MTC", "jane@example.com", "0917", "Manila",
			models.ApplicationStatusApproved, true, "0917", "REF1", nil, submitted, submitted,
			"NCII-01", "Welding NC II", "500", nil).
		AddRow("app-2", "asmt-1", nil, "Ana Reyes", "MTC", "ana@example.com", "0918", "Cebu",
			models.ApplicationStatusPending, false, "", "", nil, submitted, submitted,
			"NCII-01", "Welding NC II", "500", nil)
	mock.ExpectQuery("ORDER BY app.submitted_at ASC, app.id ASC").WillReturnRows(rows)

	applications, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, applications, 2)
	assert.Equal(t, "app-1", applications[0].ID)
	assert.Equal(t, "Welding NC II", applications[0].AssessmentTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assessment_applications WHERE id = $1")).
		WithArgs("app-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "app-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
