package models

import "time"

// ApplicationStatus represents the review state of an assessment application.
type ApplicationStatus string

// Pending is the initial state; Approved and Rejected are terminal for review.
const (
	ApplicationStatusPending  ApplicationStatus = "Pending"
	ApplicationStatusApproved ApplicationStatus = "Approved"
	ApplicationStatusRejected ApplicationStatus = "Rejected"
)

// ParseApplicationStatus normalizes raw input to a known review status.
func ParseApplicationStatus(raw string) (ApplicationStatus, bool) {
	switch ApplicationStatus(raw) {
	case ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected:
		return ApplicationStatus(raw), true
	default:
		return "", false
	}
}

// AssessmentApplication captures one applicant's submission against an
// assessment, including the applicant identity snapshot and payment block.
type AssessmentApplication struct {
	ID              string            `db:"id" json:"id"`
	AssessmentID    string            `db:"assessment_id" json:"assessment_id"`
	StudentID       *string           `db:"student_id" json:"student_id,omitempty"`
	FullName        string            `db:"full_name" json:"full_name"`
	SchoolCompany   string            `db:"school_company" json:"school_company"`
	Email           string            `db:"email" json:"email"`
	Mobile          string            `db:"mobile" json:"mobile"`
	Address         string            `db:"address" json:"address"`
	Status          ApplicationStatus `db:"status" json:"status"`
	IsOnlinePayment bool              `db:"is_online_payment" json:"is_online_payment"`
	SenderNumber    string            `db:"sender_number" json:"sender_number"`
	ReferenceNumber string            `db:"reference_number" json:"reference_number"`
	PaymentProof    *string           `db:"payment_proof" json:"payment_proof,omitempty"`
	SubmittedAt     time.Time         `db:"submitted_at" json:"submitted_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// ApplicationDetail enriches an application with assessment and student info.
type ApplicationDetail struct {
	AssessmentApplication
	AssessmentCode  string  `db:"assessment_code" json:"assessment_code"`
	AssessmentTitle string  `db:"assessment_title" json:"assessment_title"`
	AssessmentFee   string  `db:"assessment_fee" json:"assessment_fee"`
	StudentName     *string `db:"student_name" json:"student_name,omitempty"`
}

// ApplicationFilter provides filters for listing applications.
type ApplicationFilter struct {
	AssessmentID string
	Status       ApplicationStatus
	Search       string
}
