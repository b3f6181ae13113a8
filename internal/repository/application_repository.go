package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mtc-portal/enrollment-api/internal/models"
)

// ApplicationRepository handles persistence of assessment applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationDetailColumns = `app.id, app.assessment_id, app.student_id, app.full_name, app.school_company, app.email, app.mobile, app.address,
        app.status, app.is_online_payment, app.sender_number, app.reference_number, app.payment_proof, app.submitted_at, app.updated_at,
        a.assessment_id AS assessment_code, a.title AS assessment_title, a.fee AS assessment_fee, s.full_name AS student_name`

// List returns applications with assessment context, newest first.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, error) {
	base := `FROM assessment_applications app
        LEFT JOIN assessments a ON a.id = app.assessment_id
        LEFT JOIN students s ON s.id = app.student_id`
	var conditions []string
	var args []interface{}

	if filter.AssessmentID != "" {
		conditions = append(conditions, fmt.Sprintf("app.assessment_id = $%d", len(args)+1))
		args = append(args, filter.AssessmentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("app.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(app.full_name) LIKE $%d OR LOWER(app.school_company) LIKE $%d OR LOWER(a.title) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY app.submitted_at DESC", applicationDetailColumns, base+clause)

	var applications []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &applications, query, args...); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return applications, nil
}

// ListAll returns every application joined with its assessment in stable
// submission order. The sales aggregator projects over this set in memory.
func (r *ApplicationRepository) ListAll(ctx context.Context) ([]models.ApplicationDetail, error) {
	query := fmt.Sprintf(`SELECT %s
        FROM assessment_applications app
        LEFT JOIN assessments a ON a.id = app.assessment_id
        LEFT JOIN students s ON s.id = app.student_id
        ORDER BY app.submitted_at ASC, app.id ASC`, applicationDetailColumns)

	var applications []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &applications, query); err != nil {
		return nil, fmt.Errorf("list all applications: %w", err)
	}
	return applications, nil
}

// FindByID returns an application by its ID.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.AssessmentApplication, error) {
	const query = `SELECT id, assessment_id, student_id, full_name, school_company, email, mobile, address,
        status, is_online_payment, sender_number, reference_number, payment_proof, submitted_at, updated_at
        FROM assessment_applications WHERE id = $1`
	var application models.AssessmentApplication
	if err := r.db.GetContext(ctx, &application, query, id); err != nil {
		return nil, err
	}
	return &application, nil
}

// FindDetailByID returns an application with assessment context.
func (r *ApplicationRepository) FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	query := fmt.Sprintf(`SELECT %s
        FROM assessment_applications app
        LEFT JOIN assessments a ON a.id = app.assessment_id
        LEFT JOIN students s ON s.id = app.student_id
        WHERE app.id = $1`, applicationDetailColumns)
	var detail models.ApplicationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create persists a new application record.
func (r *ApplicationRepository) Create(ctx context.Context, application *models.AssessmentApplication) error {
	if application.ID == "" {
		application.ID = uuid.NewString()
	}
	if application.Status == "" {
		application.Status = models.ApplicationStatusPending
	}
	now := time.Now().UTC()
	if application.SubmittedAt.IsZero() {
		application.SubmittedAt = now
	}
	application.UpdatedAt = now
	const query = `INSERT INTO assessment_applications (id, assessment_id, student_id, full_name, school_company, email, mobile, address,
        status, is_online_payment, sender_number, reference_number, payment_proof, submitted_at, updated_at)
        VALUES (:id, :assessment_id, :student_id, :full_name, :school_company, :email, :mobile, :address,
        :status, :is_online_payment, :sender_number, :reference_number, :payment_proof, :submitted_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, application); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// UpdateStatus overwrites an application's review status.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	const query = `UPDATE assessment_applications SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	return nil
}

// UpdatePaymentProof records the stored proof-of-payment reference.
func (r *ApplicationRepository) UpdatePaymentProof(ctx context.Context, id string, proof string) error {
	const query = `UPDATE assessment_applications SET payment_proof = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, proof, time.Now().UTC()); err != nil {
		return fmt.Errorf("update payment proof: %w", err)
	}
	return nil
}

// Delete hard-deletes an application. Permitted from any status; occupancy is
// always recomputed live from the remaining records.
func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM assessment_applications WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	return nil
}
