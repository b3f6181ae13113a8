package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mtc-portal/enrollment-api/internal/models"
	appErrors "github.com/mtc-portal/enrollment-api/pkg/errors"
)

type assessmentRepository interface {
	List(ctx context.Context, filter models.AssessmentFilter) ([]models.AssessmentDetail, error)
	FindByID(ctx context.Context, id string) (*models.Assessment, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	CountActive(ctx context.Context, assessmentID string) (int, error)
	Create(ctx context.Context, assessment *models.Assessment) error
	Update(ctx context.Context, assessment *models.Assessment) error
	Delete(ctx context.Context, id string) error
}

// SaveAssessmentRequest holds payload for creating or updating assessments.
type SaveAssessmentRequest struct {
	AssessmentID string `json:"assessment_id" validate:"required"`
	Title        string `json:"title" validate:"required"`
	Fee          string `json:"fee"`
	Capacity     int    `json:"capacity" validate:"gte=0"`
	Status       string `json:"status" validate:"omitempty,oneof=Active Pending Closed"`
}

// AssessmentService handles assessment offering use-cases.
type AssessmentService struct {
	repo      assessmentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssessmentService constructs the assessment service.
func NewAssessmentService(repo assessmentRepository, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{repo: repo, validator: validate, logger: logger}
}

// List returns assessments with live application counts and available slots.
func (s *AssessmentService) List(ctx context.Context, filter models.AssessmentFilter) ([]models.AssessmentDetail, error) {
	assessments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessments")
	}
	for i := range assessments {
		assessments[i].AvailableSlots = AvailableSlots(assessments[i].Capacity, assessments[i].Applications)
	}
	return assessments, nil
}

// Get returns a single assessment with live occupancy.
func (s *AssessmentService) Get(ctx context.Context, id string) (*models.AssessmentDetail, error) {
	assessment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	applications, err := s.repo.CountActive(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count applications")
	}
	detail := &models.AssessmentDetail{
		Assessment:     *assessment,
		Applications:   applications,
		AvailableSlots: AvailableSlots(assessment.Capacity, applications),
	}
	return detail, nil
}

// Create adds a new assessment offering. Assessment codes are unique.
func (s *AssessmentService) Create(ctx context.Context, req SaveAssessmentRequest) (*models.AssessmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	exists, err := s.repo.ExistsByCode(ctx, req.AssessmentID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate assessment code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assessment code already used")
	}
	assessment := &models.Assessment{
		AssessmentID: req.AssessmentID,
		Title:        req.Title,
		Fee:          req.Fee,
		Capacity:     req.Capacity,
		Status:       models.AssessmentStatus(req.Status),
	}
	if err := s.repo.Create(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment")
	}
	return s.Get(ctx, assessment.ID)
}

// Update modifies an existing assessment.
func (s *AssessmentService) Update(ctx context.Context, id string, req SaveAssessmentRequest) (*models.AssessmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	assessment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	exists, err := s.repo.ExistsByCode(ctx, req.AssessmentID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate assessment code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assessment code already used")
	}
	assessment.AssessmentID = req.AssessmentID
	assessment.Title = req.Title
	assessment.Fee = req.Fee
	assessment.Capacity = req.Capacity
	if req.Status != "" {
		assessment.Status = models.AssessmentStatus(req.Status)
	}
	if err := s.repo.Update(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assessment")
	}
	return s.Get(ctx, id)
}

// Delete removes an assessment offering.
func (s *AssessmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assessment")
	}
	return nil
}
