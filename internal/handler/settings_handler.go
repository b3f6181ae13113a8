package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mtc-portal/enrollment-api/internal/middleware"
	"github.com/mtc-portal/enrollment-api/internal/service"
	appErrors "github.com/mtc-portal/enrollment-api/pkg/errors"
	"github.com/mtc-portal/enrollment-api/pkg/response"
)

// SettingsHandler exposes system setting endpoints.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

type putSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// Get godoc
// @Summary Get a system setting
// @Tags Settings
// @Produce json
// @Param key path string true "Setting key"
// @Success 200 {object} response.Envelope
// @Router /system-settings/{key} [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	setting, err := h.settings.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, setting, nil)
}

// Put godoc
// @Summary Create or replace a system setting
// @Tags Settings
// @Accept json
// @Produce json
// @Param key path string true "Setting key"
// @Param payload body putSettingRequest true "Setting value"
// @Success 200 {object} response.Envelope
// @Router /system-settings/{key} [put]
func (h *SettingsHandler) Put(c *gin.Context) {
	var req putSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	updatedBy := ""
	if claims, ok := middleware.CurrentClaims(c); ok {
		updatedBy = claims.UserID
	}
	setting, err := h.settings.Put(c.Request.Context(), c.Param("key"), req.Value, updatedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, setting, nil)
}

// PaymentQR godoc
// @Summary Render the configured GCash number as a QR PNG
// @Tags Settings
// @Produce png
// @Success 200
// @Router /system-settings/payment_config/qr [get]
func (h *SettingsHandler) PaymentQR(c *gin.Context) {
	png, err := h.settings.PaymentQR(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
