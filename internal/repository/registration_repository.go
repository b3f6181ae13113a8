package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mtc-portal/enrollment-api/internal/models"
)

// RegistrationRepository handles persistence of registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationDetailColumns = `r.id, r.student_id, r.schedule_id, r.status, r.terms_accepted, r.created_at, r.updated_at,
        s.full_name AS student_name, s.email AS student_email, sch.course_id AS course_id, sch.title AS course_title, sch.training_date`

// List returns registrations with contextual info, newest first. Schedules
// are left-joined so registrations pointing at a deleted schedule still list.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, error) {
	base := `FROM registrations r
        LEFT JOIN students s ON s.id = r.student_id
        LEFT JOIN schedules sch ON sch.id = r.schedule_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("r.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ScheduleID != "" {
		conditions = append(conditions, fmt.Sprintf("r.schedule_id = $%d", len(args)+1))
		args = append(args, filter.ScheduleID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY r.created_at DESC", registrationDetailColumns, base+clause)

	var registrations []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &registrations, query, args...); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return registrations, nil
}

// FindByID returns a registration by its ID.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	const query = `SELECT id, student_id, schedule_id, status, terms_accepted, created_at, updated_at FROM registrations WHERE id = $1`
	var registration models.Registration
	if err := r.db.GetContext(ctx, &registration, query, id); err != nil {
		return nil, err
	}
	return &registration, nil
}

// FindDetailByID returns a registration with contextual info.
func (r *RegistrationRepository) FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	query := fmt.Sprintf(`SELECT %s
        FROM registrations r
        LEFT JOIN students s ON s.id = r.student_id
        LEFT JOIN schedules sch ON sch.id = r.schedule_id
        WHERE r.id = $1`, registrationDetailColumns)
	var detail models.RegistrationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindActiveByStudent returns the student's single non-cancelled registration,
// or sql.ErrNoRows when none exists.
func (r *RegistrationRepository) FindActiveByStudent(ctx context.Context, studentID string) (*models.Registration, error) {
	const query = `SELECT id, student_id, schedule_id, status, terms_accepted, created_at, updated_at
        FROM registrations WHERE student_id = $1 AND status <> $2
        ORDER BY created_at DESC LIMIT 1`
	var registration models.Registration
	if err := r.db.GetContext(ctx, &registration, query, studentID, models.RegistrationStatusCancelled); err != nil {
		return nil, err
	}
	return &registration, nil
}

// Create persists a new registration record.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.Registration) error {
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	if registration.Status == "" {
		registration.Status = models.RegistrationStatusActive
	}
	now := time.Now().UTC()
	if registration.CreatedAt.IsZero() {
		registration.CreatedAt = now
	}
	registration.UpdatedAt = now
	const query = `INSERT INTO registrations (id, student_id, schedule_id, status, terms_accepted, created_at, updated_at)
        VALUES (:id, :student_id, :schedule_id, :status, :terms_accepted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, registration); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// UpdateSchedule repoints a registration at another schedule in place.
func (r *RegistrationRepository) UpdateSchedule(ctx context.Context, id, scheduleID string) error {
	const query = `UPDATE registrations SET schedule_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, scheduleID, time.Now().UTC()); err != nil {
		return fmt.Errorf("reassign registration: %w", err)
	}
	return nil
}

// UpdateStatus overwrites a registration's status.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error {
	const query = `UPDATE registrations SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	return nil
}

// Delete removes a single registration row.
func (r *RegistrationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM registrations WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return nil
}

// DeleteByStudent removes all registrations belonging to the student. This is
// the cascade path used by student deletion.
func (r *RegistrationRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	const query = `DELETE FROM registrations WHERE student_id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID); err != nil {
		return fmt.Errorf("delete student registrations: %w", err)
	}
	return nil
}

// CountActiveBySchedule returns live occupancy for a schedule.
func (r *RegistrationRepository) CountActiveBySchedule(ctx context.Context, scheduleID string) (int, error) {
	const query = `SELECT COUNT(*) FROM registrations WHERE schedule_id = $1 AND status <> $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, scheduleID, models.RegistrationStatusCancelled); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}
