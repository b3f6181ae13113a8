package models

import "time"

// Student represents a trainee registered with the center.
type Student struct {
	ID         string    `db:"id" json:"id"`
	FullName   string    `db:"full_name" json:"full_name"`
	Email      string    `db:"email" json:"email"`
	Mobile     string    `db:"mobile" json:"mobile"`
	Gender     string    `db:"gender" json:"gender"`
	BirthDate  time.Time `db:"birth_date" json:"birth_date"`
	Address    string    `db:"address" json:"address"`
	Education  string    `db:"education" json:"education"`
	Occupation string    `db:"occupation" json:"occupation"`
	Company    string    `db:"company" json:"company"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search     string
	ScheduleID string
}

// StudentDetail contains student information with current enrollment context.
type StudentDetail struct {
	Student
	RegistrationID     *string             `db:"registration_id" json:"registration_id,omitempty"`
	CurrentScheduleID  *string             `db:"current_schedule_id" json:"current_schedule_id,omitempty"`
	CurrentCourseID    *string             `db:"current_course_id" json:"current_course_id,omitempty"`
	CurrentCourseTitle *string             `db:"current_course_title" json:"current_course_title,omitempty"`
	RegistrationStatus *RegistrationStatus `db:"registration_status" json:"registration_status,omitempty"`
}
