package models

import "time"

// SalesTransaction is one qualifying application row in the revenue report.
type SalesTransaction struct {
	ApplicationID   string    `json:"application_id"`
	ApplicantName   string    `json:"applicant_name"`
	SchoolCompany   string    `json:"school_company"`
	AssessmentID    string    `json:"assessment_id"`
	AssessmentCode  string    `json:"assessment_code"`
	AssessmentTitle string    `json:"assessment_title"`
	Fee             float64   `json:"fee"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// SalesSummary aggregates revenue per assessment.
type SalesSummary struct {
	AssessmentID    string  `json:"assessment_id"`
	AssessmentCode  string  `json:"assessment_code"`
	AssessmentTitle string  `json:"assessment_title"`
	Fee             float64 `json:"fee"`
	Applications    int     `json:"applications"`
	Revenue         float64 `json:"revenue"`
}

// SalesFilter describes the report filters. From and To bound the submission
// timestamp inclusively (From at 00:00:00, To at 23:59:59 local time).
type SalesFilter struct {
	Search       string
	AssessmentID string
	From         *time.Time
	To           *time.Time
	Page         int
}

// SalesReport is the paginated projection with footer totals computed over
// the whole filtered set, not just the displayed page.
type SalesReport struct {
	Transactions []SalesTransaction `json:"transactions"`
	Summaries    []SalesSummary     `json:"summaries"`
	Pagination   Pagination         `json:"pagination"`
	TotalRevenue float64            `json:"total_revenue"`
}
