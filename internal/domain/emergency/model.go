package emergency

import (
	"time"

	"github.com/google/uuid"
)

// Alert statuses.
const (
	StatusActive   = "active"
	StatusResolved = "resolved"
)

// Alert maps to the emergency_alert table. Created by a patient pressing the
// panic button; visible to the family members who hold an active grant on
// that patient.
type Alert struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientUID  string     `db:"patient_uid" json:"patient_uid"`
	PatientName string     `db:"patient_name" json:"patient_name"`
	Message     string     `db:"message" json:"message"`
	Latitude    *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude   *float64   `db:"longitude" json:"longitude,omitempty"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// Contact maps to the emergency_contact table. Contacts are plain phone book
// entries, independent of the invitation flow.
type Contact struct {
	ID           uuid.UUID `db:"id" json:"id"`
	AccountID    string    `db:"account_id" json:"account_id"`
	Name         string    `db:"name" json:"name"`
	Phone        string    `db:"phone" json:"phone"`
	Relationship string    `db:"relationship" json:"relationship"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
