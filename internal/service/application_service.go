package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mtc-portal/enrollment-api/internal/models"
	appErrors "github.com/mtc-portal/enrollment-api/pkg/errors"
)

type applicationRepository interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, error)
	FindByID(ctx context.Context, id string) (*models.AssessmentApplication, error)
	FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error)
	Create(ctx context.Context, application *models.AssessmentApplication) error
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error
	UpdatePaymentProof(ctx context.Context, id string, proof string) error
	Delete(ctx context.Context, id string) error
}

type assessmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Assessment, error)
	CountActive(ctx context.Context, assessmentID string) (int, error)
}

type proofStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
}

// SubmitApplicationRequest holds payload for submitting an application.
type SubmitApplicationRequest struct {
	AssessmentID    string `json:"assessment_id" validate:"required"`
	StudentID       string `json:"student_id"`
	FullName        string `json:"full_name" validate:"required"`
	SchoolCompany   string `json:"school_company"`
	Email           string `json:"email" validate:"required,email"`
	Mobile          string `json:"mobile" validate:"required"`
	Address         string `json:"address"`
	IsOnlinePayment bool   `json:"is_online_payment"`
	SenderNumber    string `json:"sender_number"`
	ReferenceNumber string `json:"reference_number"`
}

// DecideApplicationRequest carries the review outcome for a pending application.
type DecideApplicationRequest struct {
	Status string `json:"status" validate:"required,oneof=Approved Rejected"`
}

// ApplicationService handles the assessment application workflow.
type ApplicationService struct {
	repo        applicationRepository
	assessments assessmentReader
	notifier    notificationEmitter
	storage     proofStorage
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewApplicationService constructs the application service.
func NewApplicationService(repo applicationRepository, assessments assessmentReader, notifier notificationEmitter, storage proofStorage, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{
		repo:        repo,
		assessments: assessments,
		notifier:    notifier,
		storage:     storage,
		validator:   validate,
		logger:      logger,
	}
}

// List returns applications matching the filter.
func (s *ApplicationService) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, error) {
	applications, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return applications, nil
}

// Get returns a single application with assessment context.
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	application, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return application, nil
}

// Submit records a new application in Pending state against an existing
// assessment. Capacity is advisory: a full assessment still accepts, with
// a warning logged for the operators.
func (s *ApplicationService) Submit(ctx context.Context, req SubmitApplicationRequest) (*models.ApplicationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}
	assessment, err := s.assessments.FindByID(ctx, req.AssessmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	occupancy, err := s.assessments.CountActive(ctx, assessment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count applications")
	}
	if !CanAccept(occupancy, assessment.Capacity) {
		s.logger.Warn("assessment at capacity, accepting anyway",
			zap.String("assessment_id", assessment.ID),
			zap.Int("capacity", assessment.Capacity),
			zap.Int("applications", occupancy))
	}
	application := &models.AssessmentApplication{
		AssessmentID:    assessment.ID,
		FullName:        req.FullName,
		SchoolCompany:   req.SchoolCompany,
		Email:           req.Email,
		Mobile:          req.Mobile,
		Address:         req.Address,
		IsOnlinePayment: req.IsOnlinePayment,
		SenderNumber:    req.SenderNumber,
		ReferenceNumber: req.ReferenceNumber,
	}
	if req.StudentID != "" {
		application.StudentID = &req.StudentID
	}
	if err := s.repo.Create(ctx, application); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}
	s.notifier.Emit(ctx, models.NotificationTypeAssessment, fmt.Sprintf("New application for %s from %s", assessment.Title, req.FullName))
	return s.Get(ctx, application.ID)
}

// Decide resolves a pending application to Approved or Rejected. Both
// outcomes are terminal: re-deciding an already decided application is a
// conflict, never a silent overwrite.
func (s *ApplicationService) Decide(ctx context.Context, id string, req DecideApplicationRequest) (*models.ApplicationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}
	status, _ := models.ParseApplicationStatus(req.Status)
	application, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if application.Status != models.ApplicationStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("application already %s", strings.ToLower(string(application.Status))))
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application")
	}
	s.notifier.Emit(ctx, models.NotificationTypeAssessment, fmt.Sprintf("Application from %s %s", application.FullName, strings.ToLower(string(status))))
	return s.Get(ctx, id)
}

// Delete removes an application regardless of its status.
func (s *ApplicationService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete application")
	}
	return nil
}

// AttachPaymentProof stores the uploaded proof image and records its
// filename on the application.
func (s *ApplicationService) AttachPaymentProof(ctx context.Context, id, originalName string, r io.Reader) (*models.ApplicationDetail, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	filename := fmt.Sprintf("proof_%s_%s%s", id, uuid.NewString()[:8], ext)
	if _, err := s.storage.SaveStream(filename, r); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store payment proof")
	}
	if err := s.repo.UpdatePaymentProof(ctx, id, filename); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment proof")
	}
	return s.Get(ctx, id)
}

// OpenPaymentProof returns the stored proof file for streaming back to the
// caller. The caller owns closing the file.
func (s *ApplicationService) OpenPaymentProof(ctx context.Context, id string) (*os.File, error) {
	application, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if application.PaymentProof == nil || *application.PaymentProof == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no payment proof on file")
	}
	file, err := s.storage.Open(*application.PaymentProof)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open payment proof")
	}
	return file, nil
}
