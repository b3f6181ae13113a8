package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mtc-portal/enrollment-api/internal/models"
	"github.com/mtc-portal/enrollment-api/internal/service"
	"github.com/mtc-portal/enrollment-api/pkg/config"
	appErrors "github.com/mtc-portal/enrollment-api/pkg/errors"
	"github.com/mtc-portal/enrollment-api/pkg/response"
)

// ApplicationHandler exposes assessment application endpoints.
type ApplicationHandler struct {
	applications *service.ApplicationService
	uploads      config.UploadsConfig
}

// NewApplicationHandler constructs ApplicationHandler.
func NewApplicationHandler(applications *service.ApplicationService, uploads config.UploadsConfig) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, uploads: uploads}
}

// List godoc
// @Summary List assessment applications
// @Tags Applications
// @Produce json
// @Param assessmentId query string false "Filter by assessment"
// @Param status query string false "Filter by status"
// @Param search query string false "Search by applicant"
// @Success 200 {object} response.Envelope
// @Router /assessment-applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	var filter models.ApplicationFilter
	filter.AssessmentID = c.Query("assessmentId")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseApplicationStatus(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown application status"))
			return
		}
		filter.Status = status
	}

	applications, err := h.applications.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, applications, nil)
}

// Get godoc
// @Summary Get application detail
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /assessment-applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	application, err := h.applications.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, application, nil)
}

// Submit godoc
// @Summary Submit an assessment application
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body service.SubmitApplicationRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Router /assessment-applications [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req service.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	application, err := h.applications.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, application)
}

// Decide godoc
// @Summary Approve or reject a pending application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body service.DecideApplicationRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /assessment-applications/{id}/status [patch]
func (h *ApplicationHandler) Decide(c *gin.Context) {
	var req service.DecideApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	application, err := h.applications.Decide(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, application, nil)
}

// Delete godoc
// @Summary Delete application
// @Tags Applications
// @Param id path string true "Application ID"
// @Success 204
// @Router /assessment-applications/{id} [delete]
func (h *ApplicationHandler) Delete(c *gin.Context) {
	if err := h.applications.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UploadPaymentProof godoc
// @Summary Attach a payment proof image to an application
// @Tags Applications
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Application ID"
// @Param file formData file true "Proof image"
// @Success 200 {object} response.Envelope
// @Router /assessment-applications/{id}/payment-proof [post]
func (h *ApplicationHandler) UploadPaymentProof(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing proof file"))
		return
	}
	if h.uploads.MaxFileSizeBytes > 0 && fileHeader.Size > h.uploads.MaxFileSizeBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "proof file too large"))
		return
	}
	if len(h.uploads.AllowedMIMEs) > 0 {
		contentType := fileHeader.Header.Get("Content-Type")
		allowed := false
		for _, mime := range h.uploads.AllowedMIMEs {
			if strings.EqualFold(mime, contentType) {
				allowed = true
				break
			}
		}
		if !allowed {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported proof file type"))
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read proof file"))
		return
	}
	defer file.Close()

	application, err := h.applications.AttachPaymentProof(c.Request.Context(), c.Param("id"), fileHeader.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, application, nil)
}

// GetPaymentProof godoc
// @Summary Download the stored payment proof
// @Tags Applications
// @Produce octet-stream
// @Param id path string true "Application ID"
// @Success 200
// @Router /assessment-applications/{id}/payment-proof [get]
func (h *ApplicationHandler) GetPaymentProof(c *gin.Context) {
	file, err := h.applications.OpenPaymentProof(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", `inline; filename="`+file.Name()+`"`)
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
