package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mtc-portal/enrollment-api/internal/models"
	appErrors "github.com/mtc-portal/enrollment-api/pkg/errors"
)

type registrationRepository interface {
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, error)
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error)
	FindActiveByStudent(ctx context.Context, studentID string) (*models.Registration, error)
	Create(ctx context.Context, registration *models.Registration) error
	UpdateSchedule(ctx context.Context, id, scheduleID string) error
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error
	Delete(ctx context.Context, id string) error
	DeleteByStudent(ctx context.Context, studentID string) error
	CountActiveBySchedule(ctx context.Context, scheduleID string) (int, error)
}

type scheduleReader interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
}

type notificationEmitter interface {
	Emit(ctx context.Context, kind models.NotificationType, message string)
}

// CreateRegistrationRequest describes registration intake.
type CreateRegistrationRequest struct {
	StudentID     string `json:"student_id" validate:"required"`
	ScheduleID    string `json:"schedule_id" validate:"required"`
	TermsAccepted bool   `json:"terms_accepted" validate:"required"`
}

// UpdateRegistrationRequest carries a status overwrite and/or reassignment.
type UpdateRegistrationRequest struct {
	Status     *string `json:"status"`
	ScheduleID *string `json:"schedule_id"`
}

// RegistrationService keeps each student enrolled in at most one
// non-cancelled schedule across create, reassignment and deletion.
type RegistrationService struct {
	repo      registrationRepository
	schedules scheduleReader
	notifier  notificationEmitter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(repo registrationRepository, schedules scheduleReader, notifier notificationEmitter, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{repo: repo, schedules: schedules, notifier: notifier, validator: validate, logger: logger}
}

// List returns registrations matching the filter.
func (s *RegistrationService) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, error) {
	registrations, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return registrations, nil
}

// Get returns a registration with contextual info.
func (s *RegistrationService) Get(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return detail, nil
}

// Create registers a student to a schedule via the reconciler.
func (s *RegistrationService) Create(ctx context.Context, req CreateRegistrationRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	return s.AssignSchedule(ctx, req.StudentID, req.ScheduleID)
}

// AssignSchedule reconciles the student's enrollment against the requested
// schedule. At most one non-cancelled registration exists per student:
// none yet creates one, a different schedule is repointed in place, and the
// same schedule is a no-op. The call is idempotent and never produces a
// second row.
func (s *RegistrationService) AssignSchedule(ctx context.Context, studentID, scheduleID string) (*models.Registration, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	occupancy, err := s.repo.CountActiveBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute occupancy")
	}
	if !CanAccept(occupancy, schedule.Capacity) {
		// Capacity is advisory: the write proceeds, correctable by a
		// manual status change.
		s.logger.Warn("schedule at capacity, accepting anyway",
			zap.String("schedule_id", scheduleID),
			zap.Int("occupancy", occupancy),
			zap.Int("capacity", schedule.Capacity))
	}

	current, err := s.repo.FindActiveByStudent(ctx, studentID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current registration")
	}

	if err == sql.ErrNoRows {
		registration := &models.Registration{StudentID: studentID, ScheduleID: scheduleID, Status: models.RegistrationStatusActive, TermsAccepted: true}
		if err := s.repo.Create(ctx, registration); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
		}
		s.notifier.Emit(ctx, models.NotificationTypeRegistration, fmt.Sprintf("New registration for %s", schedule.Title))
		return registration, nil
	}

	if current.ScheduleID == scheduleID {
		return current, nil
	}

	if err := s.repo.UpdateSchedule(ctx, current.ID, scheduleID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign registration")
	}
	current.ScheduleID = scheduleID
	s.notifier.Emit(ctx, models.NotificationTypeRegistration, fmt.Sprintf("Registration moved to %s", schedule.Title))
	return current, nil
}

// Update applies a status overwrite and/or schedule reassignment to a
// registration. Status changes are direct administrative corrections; marking
// a seat cancelled frees capacity on the next occupancy computation, while
// re-activation is refused when the student already holds another
// non-cancelled registration.
func (s *RegistrationService) Update(ctx context.Context, id string, req UpdateRegistrationRequest) (*models.RegistrationDetail, error) {
	registration, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}

	if req.ScheduleID != nil && *req.ScheduleID != registration.ScheduleID {
		if _, err := s.schedules.FindByID(ctx, *req.ScheduleID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
		}
		if err := s.repo.UpdateSchedule(ctx, id, *req.ScheduleID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign registration")
		}
	}

	if req.Status != nil {
		status, ok := models.ParseRegistrationStatus(*req.Status)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown registration status")
		}
		if status != registration.Status {
			if status != models.RegistrationStatusCancelled {
				// Re-activating must not give the student a second
				// non-cancelled registration.
				current, err := s.repo.FindActiveByStudent(ctx, registration.StudentID)
				if err != nil && err != sql.ErrNoRows {
					return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student enrollment")
				}
				if current != nil && current.ID != registration.ID {
					return nil, appErrors.Clone(appErrors.ErrConflict, "student already has a non-cancelled registration")
				}
			}
			if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration status")
			}
			if status == models.RegistrationStatusCancelled {
				s.notifier.Emit(ctx, models.NotificationTypeRegistration, "Registration cancelled")
			}
		}
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration detail")
	}
	return detail, nil
}

// Delete hard-deletes a single registration. Cancellation is the normal
// lifecycle path; this exists for administrative cleanup only.
func (s *RegistrationService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete registration")
	}
	return nil
}

// RemoveStudentRegistrations removes every registration belonging to the
// student. Invoked by student deletion as part of the same logical operation.
func (s *RegistrationService) RemoveStudentRegistrations(ctx context.Context, studentID string) error {
	if err := s.repo.DeleteByStudent(ctx, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student registrations")
	}
	return nil
}
