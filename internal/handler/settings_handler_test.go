package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mtc-portal/enrollment-api/internal/models"
	"github.com/mtc-portal/enrollment-api/internal/service"
)

type settingRepoStub struct {
	settings map[string]models.SystemSetting
}

func (m *settingRepoStub) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	if s, ok := m.settings[key]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *settingRepoStub) Upsert(ctx context.Context, setting *models.SystemSetting) error {
	if m.settings == nil {
		m.settings = make(map[string]models.SystemSetting)
	}
	setting.UpdatedAt = time.Now().UTC()
	m.settings[setting.Key] = *setting
	return nil
}

func newSettingsHandler(repo *settingRepoStub) *SettingsHandler {
	svc := service.NewSettingsService(repo, validator.New(), zap.NewNop())
	return NewSettingsHandler(svc)
}

func TestSettingsHandlerPutRejectsBadPaymentConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newSettingsHandler(&settingRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(map[string]string{"value": `{"qr_image_ref":"x.png"}`})
	req, _ := http.NewRequest(http.MethodPut, "/system-settings/payment_config", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "key", Value: models.PaymentConfigKey}}

	h.Put(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsHandlerPaymentQR(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newSettingsHandler(&settingRepoStub{settings: map[string]models.SystemSetting{
		models.PaymentConfigKey: {Key: models.PaymentConfigKey, Value: `{"gcash_number":"09171234567"}`},
	}})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/system-settings/payment_config/qr", nil)
	c.Request = req

	h.PaymentQR(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestSettingsHandlerGetMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newSettingsHandler(&settingRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/system-settings/unknown", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "key", Value: "unknown"}}

	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
