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

// AssessmentRepository handles persistence of assessment offerings.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// List returns assessments with live application counts, newest first.
// Occupancy counts applications that are neither Rejected nor Cancelled.
func (r *AssessmentRepository) List(ctx context.Context, filter models.AssessmentFilter) ([]models.AssessmentDetail, error) {
	base := `FROM assessments a
        LEFT JOIN assessment_applications app ON app.assessment_id = a.id AND app.status NOT IN ($1, $2)`
	args := []interface{}{models.ApplicationStatusRejected, "Cancelled"}
	conditions := []string{"1=1"}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(a.title) LIKE $%d OR LOWER(a.assessment_id) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query := fmt.Sprintf(`SELECT a.id, a.assessment_id, a.title, a.fee, a.capacity, a.status, a.created_at, a.updated_at,
        COUNT(app.id) AS applications
        %s WHERE %s
        GROUP BY a.id
        ORDER BY a.created_at DESC`, base, strings.Join(conditions, " AND "))

	var assessments []models.AssessmentDetail
	if err := r.db.SelectContext(ctx, &assessments, query, args...); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, nil
}

// FindByID returns an assessment by its ID.
func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*models.Assessment, error) {
	const query = `SELECT id, assessment_id, title, fee, capacity, status, created_at, updated_at FROM assessments WHERE id = $1`
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, id); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// ExistsByCode checks uniqueness of the assessment code, optionally excluding an ID.
func (r *AssessmentRepository) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM assessments WHERE assessment_id = $1"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check assessment code: %w", err)
	}
	return true, nil
}

// CountActive returns live occupancy: non-rejected, non-cancelled applications.
func (r *AssessmentRepository) CountActive(ctx context.Context, assessmentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM assessment_applications WHERE assessment_id = $1 AND status NOT IN ($2, $3)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, assessmentID, models.ApplicationStatusRejected, "Cancelled"); err != nil {
		return 0, fmt.Errorf("count assessment applications: %w", err)
	}
	return count, nil
}

// Create persists a new assessment.
func (r *AssessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	if assessment.Status == "" {
		assessment.Status = models.AssessmentStatusActive
	}
	now := time.Now().UTC()
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = now
	}
	assessment.UpdatedAt = now
	const query = `INSERT INTO assessments (id, assessment_id, title, fee, capacity, status, created_at, updated_at)
        VALUES (:id, :assessment_id, :title, :fee, :capacity, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

// Update modifies an existing assessment.
func (r *AssessmentRepository) Update(ctx context.Context, assessment *models.Assessment) error {
	assessment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assessments SET assessment_id = :assessment_id, title = :title, fee = :fee, capacity = :capacity, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	return nil
}

// Delete removes an assessment.
func (r *AssessmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM assessments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete assessment: %w", err)
	}
	return nil
}
