package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mtc-portal/enrollment-api/internal/models"
	"github.com/mtc-portal/enrollment-api/internal/service"
	appErrors "github.com/mtc-portal/enrollment-api/pkg/errors"
	"github.com/mtc-portal/enrollment-api/pkg/export"
	"github.com/mtc-portal/enrollment-api/pkg/response"
)

// SalesHandler exposes the sales report endpoints.
type SalesHandler struct {
	sales *service.SalesService
	csv   *export.CSVExporter
	pdf   *export.PDFExporter
}

// NewSalesHandler constructs SalesHandler.
func NewSalesHandler(sales *service.SalesService, csv *export.CSVExporter, pdf *export.PDFExporter) *SalesHandler {
	return &SalesHandler{sales: sales, csv: csv, pdf: pdf}
}

func salesFilterFromQuery(c *gin.Context) (models.SalesFilter, error) {
	var filter models.SalesFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.AssessmentID = c.Query("assessmentId")
	if raw := c.Query("from"); raw != "" {
		from, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid from date, expected YYYY-MM-DD")
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid to date, expected YYYY-MM-DD")
		}
		filter.To = &to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	return filter, nil
}

// Report godoc
// @Summary Sales revenue report
// @Tags Sales
// @Produce json
// @Param search query string false "Search applicant, school or assessment"
// @Param assessmentId query string false "Filter by assessment"
// @Param from query string false "Inclusive start date (YYYY-MM-DD)"
// @Param to query string false "Inclusive end date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Router /reports/sales [get]
func (h *SalesHandler) Report(c *gin.Context) {
	filter, err := salesFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.sales.Report(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, &report.Pagination)
}

// Export godoc
// @Summary Export the sales report as CSV or PDF
// @Tags Sales
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Success 200
// @Router /reports/sales/export [get]
func (h *SalesHandler) Export(c *gin.Context) {
	filter, err := salesFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	dataset, err := h.sales.ExportDataset(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("sales_report_%s", time.Now().Format("20060102"))
	switch strings.ToLower(c.DefaultQuery("format", "csv")) {
	case "csv":
		payload, err := h.csv.Render(dataset)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to render csv"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, filename))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(dataset, "Sales Report")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to render pdf"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, filename))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}
