package service

import (
	"context"
	"database/sql"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mtc-portal/enrollment-api/internal/models"
	appErrors "github.com/mtc-portal/enrollment-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type scheduleAssigner interface {
	AssignSchedule(ctx context.Context, studentID, scheduleID string) (*models.Registration, error)
	RemoveStudentRegistrations(ctx context.Context, studentID string) error
}

var mobilePattern = regexp.MustCompile(`^\+?[0-9]{10,13}$`)

// SaveStudentRequest holds payload for creating or updating students. When
// TrainingScheduleID is set the student write is followed by a schedule
// assignment as a second step.
type SaveStudentRequest struct {
	FullName           string    `json:"full_name" validate:"required"`
	Email              string    `json:"email" validate:"required,email"`
	Mobile             string    `json:"mobile" validate:"required,mobile"`
	Gender             string    `json:"gender"`
	BirthDate          time.Time `json:"birth_date"`
	Address            string    `json:"address"`
	Education          string    `json:"education"`
	Occupation         string    `json:"occupation"`
	Company            string    `json:"company"`
	TrainingScheduleID string    `json:"training_schedule_id"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo        studentRepository
	enrollments scheduleAssigner
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, enrollments scheduleAssigner, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &StudentService{repo: repo, enrollments: enrollments, validator: validate, logger: logger}
	svc.validator.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})
	return svc
}

// List returns students matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error) {
	students, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns detailed student information.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student, then assigns the requested schedule when
// one is carried on the form. The two writes are sequential, not atomic: a
// failed assignment leaves the saved student without an enrollment and the
// error is surfaced for the caller to repair.
func (s *StudentService) Create(ctx context.Context, req SaveStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
	}
	student := &models.Student{
		FullName:   req.FullName,
		Email:      req.Email,
		Mobile:     req.Mobile,
		Gender:     req.Gender,
		BirthDate:  req.BirthDate,
		Address:    req.Address,
		Education:  req.Education,
		Occupation: req.Occupation,
		Company:    req.Company,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	if req.TrainingScheduleID != "" {
		if _, err := s.enrollments.AssignSchedule(ctx, student.ID, req.TrainingScheduleID); err != nil {
			s.logger.Warn("student saved but schedule assignment failed",
				zap.String("student_id", student.ID),
				zap.String("schedule_id", req.TrainingScheduleID),
				zap.Error(err))
			return nil, err
		}
	}
	return s.Get(ctx, student.ID)
}

// Update modifies an existing student and reconciles enrollment when the
// form carries a schedule. Shares the partial-failure window of Create.
func (s *StudentService) Update(ctx context.Context, id string, req SaveStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
	}
	student := existing.Student
	student.FullName = req.FullName
	student.Email = req.Email
	student.Mobile = req.Mobile
	student.Gender = req.Gender
	student.BirthDate = req.BirthDate
	student.Address = req.Address
	student.Education = req.Education
	student.Occupation = req.Occupation
	student.Company = req.Company
	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	if req.TrainingScheduleID != "" {
		if _, err := s.enrollments.AssignSchedule(ctx, id, req.TrainingScheduleID); err != nil {
			s.logger.Warn("student saved but schedule assignment failed",
				zap.String("student_id", id),
				zap.String("schedule_id", req.TrainingScheduleID),
				zap.Error(err))
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// Delete removes a student and cascades removal of all their registrations
// as part of the same logical operation.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.enrollments.RemoveStudentRegistrations(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}
