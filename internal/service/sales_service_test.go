package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mtc-portal/enrollment-api/internal/models"
)

type mockSalesSource struct {
	applications []models.ApplicationDetail
}

func (m *mockSalesSource) ListAll(ctx context.Context) ([]models.ApplicationDetail, error) {
	return m.applications, nil
}

func salesApp(id, name, assessmentID, title, fee string, status models.ApplicationStatus, submittedAt time.Time) models.ApplicationDetail {
	return models.ApplicationDetail{
		AssessmentApplication: models.AssessmentApplication{
			ID:           id,
			AssessmentID: assessmentID,
			FullName:     name,
			Status:       status,
			SubmittedAt:  submittedAt,
		},
		AssessmentCode:  assessmentID,
		AssessmentTitle: title,
		AssessmentFee:   fee,
	}
}

func TestNormalizeFee(t *testing.T) {
	assert.Equal(t, 1500.0, NormalizeFee("PHP 1,500.00"))
	assert.Equal(t, 500.0, NormalizeFee("500"))
	assert.Equal(t, 0.0, NormalizeFee("Free"))
	assert.Equal(t, 0.0, NormalizeFee(""))
	assert.Equal(t, 250.5, NormalizeFee("250.50 only"))
}

func TestSalesReportRejectedNeverContributes(t *testing.T) {
	now := time.Now()
	source := &mockSalesSource{applications: []models.ApplicationDetail{
		salesApp("app1", "Ana", "A", "Welding NC II", "500", models.ApplicationStatusApproved, now),
		salesApp("app2", "Ben", "A", "Welding NC II", "500", models.ApplicationStatusRejected, now),
		salesApp("app3", "Carl", "B", "Carpentry NC I", "Free", models.ApplicationStatusPending, now),
	}}
	svc := NewSalesService(source, 10, zap.NewNop())

	report, err := svc.Report(context.Background(), models.SalesFilter{})
	require.NoError(t, err)

	assert.Len(t, report.Transactions, 2)
	assert.Equal(t, 500.0, report.TotalRevenue)

	require.Len(t, report.Summaries, 2)
	assert.Equal(t, "A", report.Summaries[0].AssessmentID)
	assert.Equal(t, 1, report.Summaries[0].Applications)
	assert.Equal(t, 500.0, report.Summaries[0].Revenue)
	assert.Equal(t, "B", report.Summaries[1].AssessmentID)
	assert.Equal(t, 0.0, report.Summaries[1].Revenue)
}

func TestSalesReportDateRangeInclusive(t *testing.T) {
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.Local)
	edge := time.Date(2026, time.March, 10, 23, 59, 59, 0, time.Local)
	past := edge.Add(time.Second)

	source := &mockSalesSource{applications: []models.ApplicationDetail{
		salesApp("app1", "Ana", "A", "Welding NC II", "500", models.ApplicationStatusApproved, edge),
		salesApp("app2", "Ben", "A", "Welding NC II", "500", models.ApplicationStatusApproved, past),
	}}
	svc := NewSalesService(source, 10, zap.NewNop())

	report, err := svc.Report(context.Background(), models.SalesFilter{From: &day, To: &day})
	require.NoError(t, err)

	require.Len(t, report.Transactions, 1)
	assert.Equal(t, "app1", report.Transactions[0].ApplicationID)
	assert.Equal(t, 500.0, report.TotalRevenue)
}

func TestSalesReportPagination(t *testing.T) {
	base := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.Local)
	source := &mockSalesSource{}
	for i := 0; i < 23; i++ {
		source.applications = append(source.applications, salesApp(
			fmt.Sprintf("app%02d", i), "Applicant", "A", "Welding NC II", "100",
			models.ApplicationStatusApproved, base.Add(time.Duration(i)*time.Minute)))
	}
	svc := NewSalesService(source, 10, zap.NewNop())

	sizes := map[int]int{1: 10, 2: 10, 3: 3, 4: 0}
	for page, want := range sizes {
		report, err := svc.Report(context.Background(), models.SalesFilter{Page: page})
		require.NoError(t, err)
		assert.Len(t, report.Transactions, want, "page %d", page)
		assert.Equal(t, 23, report.Pagination.TotalCount)
		assert.Equal(t, 2300.0, report.TotalRevenue)
	}
}

func TestSalesReportStableTieBreak(t *testing.T) {
	ts := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.Local)
	source := &mockSalesSource{applications: []models.ApplicationDetail{
		salesApp("app1", "First", "A", "Welding NC II", "100", models.ApplicationStatusApproved, ts),
		salesApp("app2", "Second", "A", "Welding NC II", "100", models.ApplicationStatusApproved, ts),
		salesApp("app3", "Third", "A", "Welding NC II", "100", models.ApplicationStatusApproved, ts),
	}}
	svc := NewSalesService(source, 10, zap.NewNop())

	report, err := svc.Report(context.Background(), models.SalesFilter{})
	require.NoError(t, err)
	require.Len(t, report.Transactions, 3)
	assert.Equal(t, "app1", report.Transactions[0].ApplicationID)
	assert.Equal(t, "app2", report.Transactions[1].ApplicationID)
	assert.Equal(t, "app3", report.Transactions[2].ApplicationID)
}

func TestSalesReportSearchFilter(t *testing.T) {
	now := time.Now()
	source := &mockSalesSource{applications: []models.ApplicationDetail{
		salesApp("app1", "Maria Santos", "A", "Welding NC II", "500", models.ApplicationStatusApproved, now),
		salesApp("app2", "Juan Cruz", "B", "Carpentry NC I", "300", models.ApplicationStatusApproved, now),
	}}
	svc := NewSalesService(source, 10, zap.NewNop())

	report, err := svc.Report(context.Background(), models.SalesFilter{Search: "maria"})
	require.NoError(t, err)
	require.Len(t, report.Transactions, 1)
	assert.Equal(t, "app1", report.Transactions[0].ApplicationID)
	assert.Equal(t, 500.0, report.TotalRevenue)

	report, err = svc.Report(context.Background(), models.SalesFilter{Search: "carpentry"})
	require.NoError(t, err)
	require.Len(t, report.Transactions, 1)
	assert.Equal(t, "app2", report.Transactions[0].ApplicationID)
}

func TestSalesReportNewestFirst(t *testing.T) {
	base := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.Local)
	source := &mockSalesSource{applications: []models.ApplicationDetail{
		salesApp("old", "Ana", "A", "Welding NC II", "100", models.ApplicationStatusApproved, base),
		salesApp("new", "Ben", "A", "Welding NC II", "100", models.ApplicationStatusApproved, base.Add(time.Hour)),
	}}
	svc := NewSalesService(source, 10, zap.NewNop())

	report, err := svc.Report(context.Background(), models.SalesFilter{})
	require.NoError(t, err)
	require.Len(t, report.Transactions, 2)
	assert.Equal(t, "new", report.Transactions[0].ApplicationID)
}

func TestSalesFallbackApplicantName(t *testing.T) {
	linked := "Linked Student"
	source := &mockSalesSource{applications: []models.ApplicationDetail{
		func() models.ApplicationDetail {
			app := salesApp("app1", "", "A", "Welding NC II", "100", models.ApplicationStatusApproved, time.Now())
			app.StudentName = &linked
			return app
		}(),
		salesApp("app2", "", "A", "Welding NC II", "100", models.ApplicationStatusApproved, time.Now()),
	}}
	svc := NewSalesService(source, 10, zap.NewNop())

	report, err := svc.Report(context.Background(), models.SalesFilter{})
	require.NoError(t, err)
	require.Len(t, report.Transactions, 2)

	names := []string{report.Transactions[0].ApplicantName, report.Transactions[1].ApplicantName}
	assert.Contains(t, names, "Linked Student")
	assert.Contains(t, names, "Unknown")
}
