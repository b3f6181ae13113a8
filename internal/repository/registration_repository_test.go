package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtc-portal/enrollment-api/internal/models"
)

func newRegistrationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRegistrationRepositoryFindActiveByStudent(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "schedule_id", "status", "terms_accepted", "created_at", "updated_at"}).
		AddRow("reg-1", "stu-1", "sch-1", models.RegistrationStatusActive, true, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, student_id, schedule_id, status, terms_accepted, created_at, updated_at").
		WithArgs("stu-1", models.RegistrationStatusCancelled).
		WillReturnRows(rows)

	registration, err := repo.FindActiveByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "reg-1", registration.ID)
	assert.Equal(t, models.RegistrationStatusActive, registration.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryFindActiveByStudentNone(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery("SELECT id, student_id, schedule_id, status, terms_accepted, created_at, updated_at").
		WithArgs("stu-1", models.RegistrationStatusCancelled).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByStudent(context.Background(), "stu-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreateDefaultsStatus(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("INSERT INTO registrations").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	registration := &models.Registration{StudentID: "stu-1", ScheduleID: "sch-1", TermsAccepted: true}
	err := repo.Create(context.Background(), registration)
	require.NoError(t, err)
	assert.NotEmpty(t, registration.ID)
	assert.Equal(t, models.RegistrationStatusActive, registration.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryUpdateSchedule(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations SET schedule_id = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("reg-1", "sch-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateSchedule(context.Background(), "reg-1", "sch-2")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryDeleteByStudent(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM registrations WHERE student_id = $1")).
		WithArgs("stu-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.DeleteByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCountActiveBySchedule(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM registrations WHERE schedule_id = $1 AND status <> $2")).
		WithArgs("sch-1", models.RegistrationStatusCancelled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountActiveBySchedule(context.Background(), "sch-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
