package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mtc-portal/enrollment-api/internal/models"
	appErrors "github.com/mtc-portal/enrollment-api/pkg/errors"
	"github.com/mtc-portal/enrollment-api/pkg/export"
)

type salesSource interface {
	ListAll(ctx context.Context) ([]models.ApplicationDetail, error)
}

// NormalizeFee converts an admin-entered fee string to a numeric value by
// discarding every character that is neither a digit nor a decimal point.
// Strings with no digits, such as "Free" or "TBA", normalize to zero.
func NormalizeFee(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0
	}
	fee, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return fee
}

// SalesService computes the revenue projection over assessment applications.
// The report is recomputed on every request; nothing is persisted.
type SalesService struct {
	source   salesSource
	pageSize int
	logger   *zap.Logger
}

// NewSalesService constructs the sales service.
func NewSalesService(source salesSource, pageSize int, logger *zap.Logger) *SalesService {
	if pageSize <= 0 {
		pageSize = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesService{source: source, pageSize: pageSize, logger: logger}
}

// Report builds the filtered, paginated revenue report. Footer totals cover
// the whole filtered set, not just the returned page.
func (s *SalesService) Report(ctx context.Context, filter models.SalesFilter) (*models.SalesReport, error) {
	transactions, summaries, err := s.project(ctx)
	if err != nil {
		return nil, err
	}

	filtered := filterTransactions(transactions, filter)

	// Stable sort keeps encounter order for identical timestamps.
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].SubmittedAt.After(filtered[j].SubmittedAt)
	})

	page := filter.Page
	if page < 1 {
		page = 1
	}
	total := len(filtered)
	start := (page - 1) * s.pageSize
	if start > total {
		start = total
	}
	end := start + s.pageSize
	if end > total {
		end = total
	}

	var totalRevenue float64
	for _, tx := range filtered {
		totalRevenue += tx.Fee
	}

	report := &models.SalesReport{
		Transactions: filtered[start:end],
		Summaries:    summaries,
		Pagination: models.Pagination{
			Page:       page,
			PageSize:   s.pageSize,
			TotalCount: total,
		},
		TotalRevenue: totalRevenue,
	}
	return report, nil
}

// ExportDataset renders the whole filtered set, unpaginated, as a tabular
// dataset for the CSV and PDF exporters.
func (s *SalesService) ExportDataset(ctx context.Context, filter models.SalesFilter) (export.Dataset, error) {
	transactions, _, err := s.project(ctx)
	if err != nil {
		return export.Dataset{}, err
	}
	filtered := filterTransactions(transactions, filter)
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].SubmittedAt.After(filtered[j].SubmittedAt)
	})

	dataset := export.Dataset{
		Headers: []string{"Applicant", "School/Company", "Assessment", "Fee", "Submitted"},
	}
	var totalRevenue float64
	for _, tx := range filtered {
		totalRevenue += tx.Fee
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Applicant":      tx.ApplicantName,
			"School/Company": tx.SchoolCompany,
			"Assessment":     tx.AssessmentTitle,
			"Fee":            fmt.Sprintf("%.2f", tx.Fee),
			"Submitted":      tx.SubmittedAt.Format("2006-01-02 15:04"),
		})
	}
	dataset.Rows = append(dataset.Rows, map[string]string{
		"Applicant": "TOTAL",
		"Fee":       fmt.Sprintf("%.2f", totalRevenue),
	})
	return dataset, nil
}

// project loads every application and derives the qualifying transaction
// list plus per-assessment summaries. Rejected and cancelled applications
// never contribute.
func (s *SalesService) project(ctx context.Context) ([]models.SalesTransaction, []models.SalesSummary, error) {
	applications, err := s.source.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load applications")
	}

	transactions := make([]models.SalesTransaction, 0, len(applications))
	summaryIndex := make(map[string]int)
	var summaries []models.SalesSummary

	for _, app := range applications {
		if app.Status == models.ApplicationStatusRejected || app.Status == "Cancelled" {
			continue
		}
		fee := NormalizeFee(app.AssessmentFee)
		transactions = append(transactions, models.SalesTransaction{
			ApplicationID:   app.ID,
			ApplicantName:   applicantName(app),
			SchoolCompany:   app.SchoolCompany,
			AssessmentID:    app.AssessmentID,
			AssessmentCode:  app.AssessmentCode,
			AssessmentTitle: app.AssessmentTitle,
			Fee:             fee,
			SubmittedAt:     app.SubmittedAt,
		})
		idx, ok := summaryIndex[app.AssessmentID]
		if !ok {
			summaries = append(summaries, models.SalesSummary{
				AssessmentID:    app.AssessmentID,
				AssessmentCode:  app.AssessmentCode,
				AssessmentTitle: app.AssessmentTitle,
				Fee:             fee,
			})
			idx = len(summaries) - 1
			summaryIndex[app.AssessmentID] = idx
		}
		summaries[idx].Applications++
		summaries[idx].Revenue += fee
	}
	return transactions, summaries, nil
}

func applicantName(app models.ApplicationDetail) string {
	if app.FullName != "" {
		return app.FullName
	}
	if app.StudentName != nil && *app.StudentName != "" {
		return *app.StudentName
	}
	return "Unknown"
}

func filterTransactions(transactions []models.SalesTransaction, filter models.SalesFilter) []models.SalesTransaction {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var from, to time.Time
	if filter.From != nil {
		f := filter.From.Local()
		from = time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, f.Location())
	}
	if filter.To != nil {
		t := filter.To.Local()
		to = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
	}

	filtered := make([]models.SalesTransaction, 0, len(transactions))
	for _, tx := range transactions {
		if search != "" &&
			!strings.Contains(strings.ToLower(tx.ApplicantName), search) &&
			!strings.Contains(strings.ToLower(tx.SchoolCompany), search) &&
			!strings.Contains(strings.ToLower(tx.AssessmentTitle), search) {
			continue
		}
		if filter.AssessmentID != "" && tx.AssessmentID != filter.AssessmentID {
			continue
		}
		if filter.From != nil && tx.SubmittedAt.Before(from) {
			continue
		}
		if filter.To != nil && tx.SubmittedAt.After(to) {
			continue
		}
		filtered = append(filtered, tx)
	}
	return filtered
}
