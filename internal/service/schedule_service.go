package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mtc-portal/enrollment-api/internal/models"
	appErrors "github.com/mtc-portal/enrollment-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	ExistsByCourseID(ctx context.Context, courseID string, excludeID string) (bool, error)
	CountActive(ctx context.Context, scheduleID string) (int, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) error
}

// SaveScheduleRequest holds payload for creating or updating schedules.
type SaveScheduleRequest struct {
	CourseID     string    `json:"course_id" validate:"required"`
	Title        string    `json:"title" validate:"required"`
	TrainingDate time.Time `json:"training_date" validate:"required"`
	Capacity     int       `json:"capacity" validate:"gte=0"`
}

// ScheduleService handles training schedule use-cases.
type ScheduleService struct {
	repo      scheduleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs the schedule service.
func NewScheduleService(repo scheduleRepository, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, validator: validate, logger: logger}
}

// List returns schedules with live occupancy and the derived full flag.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error) {
	schedules, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	for i := range schedules {
		schedules[i].IsFull = !CanAccept(schedules[i].Registered, schedules[i].Capacity)
	}
	return schedules, nil
}

// Get returns a single schedule with live occupancy.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.ScheduleDetail, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	registered, err := s.repo.CountActive(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
	}
	detail := &models.ScheduleDetail{
		Schedule:   *schedule,
		Registered: registered,
		IsFull:     !CanAccept(registered, schedule.Capacity),
	}
	return detail, nil
}

// Create adds a new schedule. Course IDs are unique across schedules.
func (s *ScheduleService) Create(ctx context.Context, req SaveScheduleRequest) (*models.ScheduleDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	exists, err := s.repo.ExistsByCourseID(ctx, req.CourseID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course id already used")
	}
	schedule := &models.Schedule{
		CourseID:     req.CourseID,
		Title:        req.Title,
		TrainingDate: req.TrainingDate,
		Capacity:     req.Capacity,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return s.Get(ctx, schedule.ID)
}

// Update modifies an existing schedule. Lowering capacity below current
// occupancy is allowed; the schedule simply reports full.
func (s *ScheduleService) Update(ctx context.Context, id string, req SaveScheduleRequest) (*models.ScheduleDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	exists, err := s.repo.ExistsByCourseID(ctx, req.CourseID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course id already used")
	}
	schedule.CourseID = req.CourseID
	schedule.Title = req.Title
	schedule.TrainingDate = req.TrainingDate
	schedule.Capacity = req.Capacity
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	return s.Get(ctx, id)
}

// Delete removes a schedule.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}
