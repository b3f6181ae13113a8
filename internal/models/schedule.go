package models

import "time"

// Schedule represents a dated, capacity-limited training offering.
type Schedule struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	Title        string    `db:"title" json:"title"`
	TrainingDate time.Time `db:"training_date" json:"training_date"`
	Capacity     int       `db:"capacity" json:"capacity"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	Search string
}

// ScheduleDetail enriches Schedule with live occupancy.
// Registered counts non-cancelled registrations; it is never stored.
type ScheduleDetail struct {
	Schedule
	Registered int  `db:"registered" json:"registered"`
	IsFull     bool `db:"-" json:"is_full"`
}
