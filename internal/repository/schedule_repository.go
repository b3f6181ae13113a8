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

// ScheduleRepository handles persistence of training schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedules with live occupancy, soonest training first.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error) {
	base := `FROM schedules sch
        LEFT JOIN registrations r ON r.schedule_id = sch.id AND r.status <> $1`
	args := []interface{}{models.RegistrationStatusCancelled}
	conditions := []string{"1=1"}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(sch.title) LIKE $%d OR LOWER(sch.course_id) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query := fmt.Sprintf(`SELECT sch.id, sch.course_id, sch.title, sch.training_date, sch.capacity, sch.created_at, sch.updated_at,
        COUNT(r.id) AS registered
        %s WHERE %s
        GROUP BY sch.id
        ORDER BY sch.training_date ASC`, base, strings.Join(conditions, " AND "))

	var schedules []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// FindByID returns a schedule by its ID.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	const query = `SELECT id, course_id, title, training_date, capacity, created_at, updated_at FROM schedules WHERE id = $1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ExistsByCourseID checks uniqueness of the course code, optionally excluding an ID.
func (r *ScheduleRepository) ExistsByCourseID(ctx context.Context, courseID string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM schedules WHERE course_id = $1"
	args := []interface{}{courseID}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course id: %w", err)
	}
	return true, nil
}

// CountActive returns live occupancy: non-cancelled registrations for the schedule.
func (r *ScheduleRepository) CountActive(ctx context.Context, scheduleID string) (int, error) {
	const query = `SELECT COUNT(*) FROM registrations WHERE schedule_id = $1 AND status <> $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, scheduleID, models.RegistrationStatusCancelled); err != nil {
		return 0, fmt.Errorf("count schedule registrations: %w", err)
	}
	return count, nil
}

// Create persists a new schedule.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now
	const query = `INSERT INTO schedules (id, course_id, title, training_date, capacity, created_at, updated_at)
        VALUES (:id, :course_id, :title, :training_date, :capacity, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update modifies an existing schedule.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET course_id = :course_id, title = :title, training_date = :training_date, capacity = :capacity, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule. Existing registrations keep their schedule
// reference; deletion never cascades to them.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM schedules WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}
