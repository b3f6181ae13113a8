package models

import "time"

// NotificationType classifies the engine event a notification describes.
type NotificationType string

const (
	NotificationTypeRegistration NotificationType = "registration"
	NotificationTypeAssessment   NotificationType = "assessment"
	NotificationTypeGeneric      NotificationType = "generic"
)

// Notification is an advisory record of a significant engine event.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	Type      NotificationType `db:"type" json:"type"`
	Message   string           `db:"message" json:"message"`
	IsRead    bool             `db:"is_read" json:"is_read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
