package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mtc-portal/enrollment-api/internal/models"
	appErrors "github.com/mtc-portal/enrollment-api/pkg/errors"
)

type mockSettingRepo struct {
	settings map[string]models.SystemSetting
}

func (m *mockSettingRepo) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	if s, ok := m.settings[key]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSettingRepo) Upsert(ctx context.Context, setting *models.SystemSetting) error {
	if m.settings == nil {
		m.settings = make(map[string]models.SystemSetting)
	}
	setting.UpdatedAt = time.Now().UTC()
	m.settings[setting.Key] = *setting
	return nil
}

func newSettingsService(repo *mockSettingRepo) *SettingsService {
	return NewSettingsService(repo, validator.New(), zap.NewNop())
}

func TestPutPaymentConfigValidatesJSON(t *testing.T) {
	svc := newSettingsService(&mockSettingRepo{})

	_, err := svc.Put(context.Background(), models.PaymentConfigKey, "{not json", "admin")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	_, err = svc.Put(context.Background(), models.PaymentConfigKey, `{"qr_image_ref":"x.png"}`, "admin")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestPutAndReadPaymentConfig(t *testing.T) {
	repo := &mockSettingRepo{}
	svc := newSettingsService(repo)

	setting, err := svc.Put(context.Background(), models.PaymentConfigKey, `{"gcash_number":"09171234567"}`, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentConfigKey, setting.Key)

	cfg, err := svc.PaymentConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "09171234567", cfg.GCashNumber)
}

func TestPaymentQRRendersPNG(t *testing.T) {
	repo := &mockSettingRepo{settings: map[string]models.SystemSetting{
		models.PaymentConfigKey: {Key: models.PaymentConfigKey, Value: `{"gcash_number":"09171234567"}`},
	}}
	svc := newSettingsService(repo)

	png, err := svc.PaymentQR(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestPaymentQRWithoutConfig(t *testing.T) {
	svc := newSettingsService(&mockSettingRepo{})

	_, err := svc.PaymentQR(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}
