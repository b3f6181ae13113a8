package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/mtc-portal/enrollment-api/internal/models"
	appErrors "github.com/mtc-portal/enrollment-api/pkg/errors"
)

type notificationRepository interface {
	List(ctx context.Context) ([]models.Notification, error)
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	Create(ctx context.Context, notification *models.Notification) error
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	CountUnread(ctx context.Context) (int, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const unreadCountCacheKey = "notifications:unread_count"

// NotificationService records and serves advisory notifications. Emission is
// best-effort: a failed write is logged and swallowed so the triggering
// operation never fails on its account.
type NotificationService struct {
	repo     notificationRepository
	cache    cacheStore
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewNotificationService constructs the notification service. The cache is
// optional; a nil cache disables unread-count caching.
func NewNotificationService(repo notificationRepository, cache cacheStore, cacheTTL time.Duration, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Emit appends a notification describing an engine event. Errors are logged,
// never returned.
func (s *NotificationService) Emit(ctx context.Context, kind models.NotificationType, message string) {
	notification := &models.Notification{Type: kind, Message: message}
	if err := s.repo.Create(ctx, notification); err != nil {
		s.logger.Warn("failed to emit notification",
			zap.String("type", string(kind)),
			zap.String("message", message),
			zap.Error(err))
		return
	}
	s.invalidateUnreadCount(ctx)
}

// List returns all notifications, newest first.
func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	notifications, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flags a single notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	s.invalidateUnreadCount(ctx)
	return nil
}

// MarkAllRead flags every unread notification as read. A no-op when
// everything is already read.
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	if err := s.repo.MarkAllRead(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	s.invalidateUnreadCount(ctx)
	return nil
}

// Delete removes a single notification.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	s.invalidateUnreadCount(ctx)
	return nil
}

// DeleteAll clears the notification log.
func (s *NotificationService) DeleteAll(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear notifications")
	}
	s.invalidateUnreadCount(ctx)
	return nil
}

// UnreadCount returns the number of unread notifications, served from cache
// when fresh.
func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	if s.cache != nil {
		var cached int
		if err := s.cache.Get(ctx, unreadCountCacheKey, &cached); err == nil {
			return cached, nil
		}
	}
	count, err := s.repo.CountUnread(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, unreadCountCacheKey, count, s.cacheTTL); err != nil {
			s.logger.Debug("failed to cache unread count", zap.Error(err))
		}
	}
	return count, nil
}

func (s *NotificationService) invalidateUnreadCount(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, unreadCountCacheKey); err != nil {
		s.logger.Debug("failed to invalidate unread count cache", zap.Error(err))
	}
}
