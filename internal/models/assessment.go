package models

import "time"

// AssessmentStatus represents availability of an assessment offering.
type AssessmentStatus string

const (
	AssessmentStatusActive  AssessmentStatus = "Active"
	AssessmentStatusPending AssessmentStatus = "Pending"
	AssessmentStatusClosed  AssessmentStatus = "Closed"
)

// Assessment represents a capacity-limited, fee-bearing certification offering.
// Fee is stored as entered by the admin; NormalizeFee strips it for arithmetic.
type Assessment struct {
	ID           string           `db:"id" json:"id"`
	AssessmentID string           `db:"assessment_id" json:"assessment_id"`
	Title        string           `db:"title" json:"title"`
	Fee          string           `db:"fee" json:"fee"`
	Capacity     int              `db:"capacity" json:"capacity"`
	Status       AssessmentStatus `db:"status" json:"status"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// AssessmentFilter describes query params for listing assessments.
type AssessmentFilter struct {
	Search string
	Status AssessmentStatus
}

// AssessmentDetail enriches Assessment with live occupancy.
type AssessmentDetail struct {
	Assessment
	Applications   int `db:"applications" json:"applications"`
	AvailableSlots int `db:"-" json:"available_slots"`
}
