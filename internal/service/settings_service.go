package service

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/mtc-portal/enrollment-api/internal/models"
	appErrors "github.com/mtc-portal/enrollment-api/pkg/errors"
)

type settingRepository interface {
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	Upsert(ctx context.Context, setting *models.SystemSetting) error
}

// SettingsService manages persisted key/value configuration, including the
// payment_config entry used by the application payment flow.
type SettingsService struct {
	repo      settingRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs the settings service.
func NewSettingsService(repo settingRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, validator: validate, logger: logger}
}

// Get returns a setting by key.
func (s *SettingsService) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "setting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load setting")
	}
	return setting, nil
}

// Put stores a setting value. The payment_config value must decode to a
// valid PaymentConfig before it is accepted.
func (s *SettingsService) Put(ctx context.Context, key, value, updatedBy string) (*models.SystemSetting, error) {
	if key == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "setting key is required")
	}
	if key == models.PaymentConfigKey {
		var cfg models.PaymentConfig
		if err := json.Unmarshal([]byte(value), &cfg); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "payment config is not valid JSON")
		}
		if err := s.validator.Struct(cfg); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment config")
		}
	}
	setting := &models.SystemSetting{Key: key, Value: value}
	if updatedBy != "" {
		setting.UpdatedBy = &updatedBy
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save setting")
	}
	return s.Get(ctx, key)
}

// PaymentConfig returns the decoded payment configuration.
func (s *SettingsService) PaymentConfig(ctx context.Context) (*models.PaymentConfig, error) {
	setting, err := s.Get(ctx, models.PaymentConfigKey)
	if err != nil {
		return nil, err
	}
	var cfg models.PaymentConfig
	if err := json.Unmarshal([]byte(setting.Value), &cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "payment config is corrupted")
	}
	return &cfg, nil
}

// PaymentQR renders a PNG QR code for the configured GCash number.
func (s *SettingsService) PaymentQR(ctx context.Context) ([]byte, error) {
	cfg, err := s.PaymentConfig(ctx)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(cfg.GCashNumber, qrcode.Medium, 256)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render payment QR")
	}
	return png, nil
}
