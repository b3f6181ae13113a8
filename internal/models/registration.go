package models

import "time"

// RegistrationStatus represents the lifecycle of a registration.
type RegistrationStatus string

// Possible registration statuses. Active is the defined default: a blank
// status on input normalizes to it.
const (
	RegistrationStatusActive    RegistrationStatus = "active"
	RegistrationStatusPending   RegistrationStatus = "pending"
	RegistrationStatusCancelled RegistrationStatus = "cancelled"
)

// ParseRegistrationStatus normalizes raw input to a known status.
// Empty input yields the default status; unknown input reports false.
func ParseRegistrationStatus(raw string) (RegistrationStatus, bool) {
	switch RegistrationStatus(raw) {
	case "":
		return RegistrationStatusActive, true
	case RegistrationStatusActive, RegistrationStatusPending, RegistrationStatusCancelled:
		return RegistrationStatus(raw), true
	default:
		return "", false
	}
}

// Registration links one student to one training schedule.
type Registration struct {
	ID            string             `db:"id" json:"id"`
	StudentID     string             `db:"student_id" json:"student_id"`
	ScheduleID    string             `db:"schedule_id" json:"schedule_id"`
	Status        RegistrationStatus `db:"status" json:"status"`
	TermsAccepted bool               `db:"terms_accepted" json:"terms_accepted"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
}

// RegistrationDetail enriches Registration with student and schedule info.
type RegistrationDetail struct {
	Registration
	StudentName  string     `db:"student_name" json:"student_name"`
	StudentEmail string     `db:"student_email" json:"student_email"`
	CourseID     *string    `db:"course_id" json:"course_id,omitempty"`
	CourseTitle  *string    `db:"course_title" json:"course_title,omitempty"`
	TrainingDate *time.Time `db:"training_date" json:"training_date,omitempty"`
}

// RegistrationFilter provides filters for listing registrations.
type RegistrationFilter struct {
	StudentID  string
	ScheduleID string
	Status     RegistrationStatus
}
