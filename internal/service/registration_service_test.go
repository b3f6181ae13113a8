package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mtc-portal/enrollment-api/internal/models"
	appErrors "github.com/mtc-portal/enrollment-api/pkg/errors"
)

type mockRegistrationRepo struct {
	registrations map[string]models.Registration
	occupancy     map[string]int
	created       []*models.Registration
	reassigned    []string
	statuses      map[string]models.RegistrationStatus
	deletedFor    []string
}

func (m *mockRegistrationRepo) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, error) {
	return nil, nil
}

func (m *mockRegistrationRepo) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	if r, ok := m.registrations[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	if r, ok := m.registrations[id]; ok {
		return &models.RegistrationDetail{Registration: r}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) FindActiveByStudent(ctx context.Context, studentID string) (*models.Registration, error) {
	for _, r := range m.registrations {
		if r.StudentID == studentID && r.Status != models.RegistrationStatusCancelled {
			reg := r
			return &reg, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) Create(ctx context.Context, registration *models.Registration) error {
	if m.registrations == nil {
		m.registrations = make(map[string]models.Registration)
	}
	if registration.ID == "" {
		registration.ID = "new-reg"
	}
	m.registrations[registration.ID] = *registration
	m.created = append(m.created, registration)
	return nil
}

func (m *mockRegistrationRepo) UpdateSchedule(ctx context.Context, id, scheduleID string) error {
	if r, ok := m.registrations[id]; ok {
		r.ScheduleID = scheduleID
		m.registrations[id] = r
	}
	m.reassigned = append(m.reassigned, id)
	return nil
}

func (m *mockRegistrationRepo) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error {
	if m.statuses == nil {
		m.statuses = make(map[string]models.RegistrationStatus)
	}
	m.statuses[id] = status
	if r, ok := m.registrations[id]; ok {
		r.Status = status
		m.registrations[id] = r
	}
	return nil
}

func (m *mockRegistrationRepo) Delete(ctx context.Context, id string) error {
	delete(m.registrations, id)
	return nil
}

func (m *mockRegistrationRepo) DeleteByStudent(ctx context.Context, studentID string) error {
	for id, r := range m.registrations {
		if r.StudentID == studentID {
			delete(m.registrations, id)
		}
	}
	m.deletedFor = append(m.deletedFor, studentID)
	return nil
}

func (m *mockRegistrationRepo) CountActiveBySchedule(ctx context.Context, scheduleID string) (int, error) {
	if m.occupancy != nil {
		return m.occupancy[scheduleID], nil
	}
	count := 0
	for _, r := range m.registrations {
		if r.ScheduleID == scheduleID && r.Status != models.RegistrationStatusCancelled {
			count++
		}
	}
	return count, nil
}

type mockScheduleReader struct {
	capacity int
}

func (m *mockScheduleReader) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	if id == "missing" {
		return nil, sql.ErrNoRows
	}
	capacity := m.capacity
	if capacity == 0 {
		capacity = 20
	}
	return &models.Schedule{ID: id, Title: "Welding NC II - " + id, Capacity: capacity}, nil
}

type mockNotifier struct {
	emitted []string
}

func (m *mockNotifier) Emit(ctx context.Context, kind models.NotificationType, message string) {
	m.emitted = append(m.emitted, message)
}

func newRegistrationService(repo *mockRegistrationRepo, schedules *mockScheduleReader, notifier *mockNotifier) *RegistrationService {
	return NewRegistrationService(repo, schedules, notifier, validator.New(), zap.NewNop())
}

func TestAssignScheduleCreatesRegistration(t *testing.T) {
	repo := &mockRegistrationRepo{}
	notifier := &mockNotifier{}
	svc := newRegistrationService(repo, &mockScheduleReader{}, notifier)

	registration, err := svc.AssignSchedule(context.Background(), "s1", "sched-a")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusActive, registration.Status)
	assert.Len(t, repo.created, 1)
	assert.Len(t, notifier.emitted, 1)
}

func TestAssignScheduleIdempotent(t *testing.T) {
	repo := &mockRegistrationRepo{}
	svc := newRegistrationService(repo, &mockScheduleReader{}, &mockNotifier{})

	first, err := svc.AssignSchedule(context.Background(), "s1", "sched-a")
	require.NoError(t, err)
	second, err := svc.AssignSchedule(context.Background(), "s1", "sched-a")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.created, 1)
	assert.Len(t, repo.registrations, 1)
	assert.Empty(t, repo.reassigned)
}

func TestAssignScheduleReassignsInPlace(t *testing.T) {
	repo := &mockRegistrationRepo{}
	svc := newRegistrationService(repo, &mockScheduleReader{}, &mockNotifier{})

	_, err := svc.AssignSchedule(context.Background(), "s1", "sched-a")
	require.NoError(t, err)
	moved, err := svc.AssignSchedule(context.Background(), "s1", "sched-b")
	require.NoError(t, err)

	assert.Equal(t, "sched-b", moved.ScheduleID)
	assert.Len(t, repo.created, 1)
	assert.Len(t, repo.registrations, 1)
	assert.Len(t, repo.reassigned, 1)
}

func TestAssignScheduleMissingSchedule(t *testing.T) {
	svc := newRegistrationService(&mockRegistrationRepo{}, &mockScheduleReader{}, &mockNotifier{})

	_, err := svc.AssignSchedule(context.Background(), "s1", "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestAssignScheduleAcceptsOverCapacity(t *testing.T) {
	repo := &mockRegistrationRepo{occupancy: map[string]int{"sched-a": 5}}
	svc := newRegistrationService(repo, &mockScheduleReader{capacity: 5}, &mockNotifier{})

	registration, err := svc.AssignSchedule(context.Background(), "s1", "sched-a")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusActive, registration.Status)
	assert.Len(t, repo.created, 1)
}

func TestCreateRequiresTermsAccepted(t *testing.T) {
	svc := newRegistrationService(&mockRegistrationRepo{}, &mockScheduleReader{}, &mockNotifier{})

	_, err := svc.Create(context.Background(), CreateRegistrationRequest{StudentID: "s1", ScheduleID: "sched-a"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestUpdateCancelsRegistration(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{
		"r1": {ID: "r1", StudentID: "s1", ScheduleID: "sched-a", Status: models.RegistrationStatusActive},
	}}
	notifier := &mockNotifier{}
	svc := newRegistrationService(repo, &mockScheduleReader{}, notifier)

	cancelled := "cancelled"
	detail, err := svc.Update(context.Background(), "r1", UpdateRegistrationRequest{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusCancelled, detail.Status)
	assert.Equal(t, models.RegistrationStatusCancelled, repo.statuses["r1"])
	assert.Contains(t, notifier.emitted, "Registration cancelled")
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{
		"r1": {ID: "r1", StudentID: "s1", ScheduleID: "sched-a", Status: models.RegistrationStatusActive},
	}}
	svc := newRegistrationService(repo, &mockScheduleReader{}, &mockNotifier{})

	bogus := "graduated"
	_, err := svc.Update(context.Background(), "r1", UpdateRegistrationRequest{Status: &bogus})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestUpdateReactivationKeepsSingleEnrollment(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{
		"r1": {ID: "r1", StudentID: "s1", ScheduleID: "sched-a", Status: models.RegistrationStatusCancelled},
	}}
	svc := newRegistrationService(repo, &mockScheduleReader{}, &mockNotifier{})

	_, err := svc.AssignSchedule(context.Background(), "s1", "sched-b")
	require.NoError(t, err)

	active := "active"
	_, err = svc.Update(context.Background(), "r1", UpdateRegistrationRequest{Status: &active})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)

	nonCancelled := 0
	for _, r := range repo.registrations {
		if r.StudentID == "s1" && r.Status != models.RegistrationStatusCancelled {
			nonCancelled++
		}
	}
	assert.Equal(t, 1, nonCancelled)
}

func TestUpdateReactivatesSoleRegistration(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{
		"r1": {ID: "r1", StudentID: "s1", ScheduleID: "sched-a", Status: models.RegistrationStatusCancelled},
	}}
	svc := newRegistrationService(repo, &mockScheduleReader{}, &mockNotifier{})

	active := "active"
	detail, err := svc.Update(context.Background(), "r1", UpdateRegistrationRequest{Status: &active})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusActive, detail.Status)
}

func TestRemoveStudentRegistrations(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{
		"r1": {ID: "r1", StudentID: "s1", ScheduleID: "sched-a", Status: models.RegistrationStatusActive},
		"r2": {ID: "r2", StudentID: "s2", ScheduleID: "sched-a", Status: models.RegistrationStatusActive},
	}}
	svc := newRegistrationService(repo, &mockScheduleReader{}, &mockNotifier{})

	require.NoError(t, svc.RemoveStudentRegistrations(context.Background(), "s1"))
	assert.NotContains(t, repo.registrations, "r1")
	assert.Contains(t, repo.registrations, "r2")
}
