package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mtc-portal/enrollment-api/internal/models"
	appErrors "github.com/mtc-portal/enrollment-api/pkg/errors"
)

type mockNotificationRepo struct {
	notifications map[string]models.Notification
	createErr     error
	markedAll     int
}

func (m *mockNotificationRepo) List(ctx context.Context) ([]models.Notification, error) {
	var list []models.Notification
	for _, n := range m.notifications {
		list = append(list, n)
	}
	return list, nil
}

func (m *mockNotificationRepo) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	if n, ok := m.notifications[id]; ok {
		return &n, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.notifications == nil {
		m.notifications = make(map[string]models.Notification)
	}
	if notification.ID == "" {
		notification.ID = "new-note"
	}
	m.notifications[notification.ID] = *notification
	return nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id string) error {
	if n, ok := m.notifications[id]; ok {
		n.IsRead = true
		m.notifications[id] = n
	}
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context) error {
	m.markedAll++
	for id, n := range m.notifications {
		n.IsRead = true
		m.notifications[id] = n
	}
	return nil
}

func (m *mockNotificationRepo) Delete(ctx context.Context, id string) error {
	delete(m.notifications, id)
	return nil
}

func (m *mockNotificationRepo) DeleteAll(ctx context.Context) error {
	m.notifications = nil
	return nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context) (int, error) {
	count := 0
	for _, n := range m.notifications {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

type mockCacheStore struct {
	values  map[string]int
	deleted []string
}

func (m *mockCacheStore) Get(ctx context.Context, key string, dest interface{}) error {
	if v, ok := m.values[key]; ok {
		if ptr, ok := dest.(*int); ok {
			*ptr = v
			return nil
		}
	}
	return appErrors.ErrCacheMiss
}

func (m *mockCacheStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.values == nil {
		m.values = make(map[string]int)
	}
	if v, ok := value.(int); ok {
		m.values[key] = v
	}
	return nil
}

func (m *mockCacheStore) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func TestEmitSwallowsFailure(t *testing.T) {
	repo := &mockNotificationRepo{createErr: errors.New("db down")}
	svc := NewNotificationService(repo, nil, time.Second, zap.NewNop())

	// Must not panic or surface the error to the caller.
	svc.Emit(context.Background(), models.NotificationTypeRegistration, "New registration")
	assert.Empty(t, repo.notifications)
}

func TestEmitRecordsUnreadNotification(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, nil, time.Second, zap.NewNop())

	svc.Emit(context.Background(), models.NotificationTypeAssessment, "New application")
	require.Len(t, repo.notifications, 1)
	for _, n := range repo.notifications {
		assert.False(t, n.IsRead)
		assert.Equal(t, models.NotificationTypeAssessment, n.Type)
	}
}

func TestMarkAllReadOnEmptyIsNoOp(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, nil, time.Second, zap.NewNop())

	require.NoError(t, svc.MarkAllRead(context.Background()))
	require.NoError(t, svc.MarkAllRead(context.Background()))
	assert.Equal(t, 2, repo.markedAll)
	assert.Empty(t, repo.notifications)
}

func TestUnreadCountServedFromCache(t *testing.T) {
	repo := &mockNotificationRepo{notifications: map[string]models.Notification{
		"n1": {ID: "n1"},
	}}
	cache := &mockCacheStore{}
	svc := NewNotificationService(repo, cache, time.Minute, zap.NewNop())

	count, err := svc.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// A second read must hit the cache, not the repo.
	repo.notifications["n2"] = models.Notification{ID: "n2"}
	count, err = svc.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUnreadCountInvalidatedByWrites(t *testing.T) {
	repo := &mockNotificationRepo{}
	cache := &mockCacheStore{}
	svc := NewNotificationService(repo, cache, time.Minute, zap.NewNop())

	_, err := svc.UnreadCount(context.Background())
	require.NoError(t, err)

	svc.Emit(context.Background(), models.NotificationTypeGeneric, "hello")
	assert.Contains(t, cache.deleted, unreadCountCacheKey)

	count, err := svc.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
