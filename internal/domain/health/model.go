package health

import (
	"time"

	"github.com/google/uuid"
)

// Vitals maps to the vitals table. One row per account, overwritten on every
// sync from the wearable. Readings are kept as strings exactly as the device
// API reports them.
type Vitals struct {
	AccountID        string    `db:"account_id" json:"account_id"`
	HeartRate        string    `db:"heart_rate" json:"heart_rate"`
	OxygenSaturation string    `db:"oxygen_saturation" json:"oxygen_saturation"`
	Steps            string    `db:"steps" json:"steps"`
	LastUpdated      time.Time `db:"last_updated" json:"last_updated"`
}

// MedicationItem is one medication extracted from a prescription.
type MedicationItem struct {
	Name      string   `json:"name"`
	Dosage    string   `json:"dosage"`
	Frequency string   `json:"frequency"`
	Times     []string `json:"times"`
	Notes     *string  `json:"notes,omitempty"`
}

// Prescription maps to the prescription table. Medications are stored as
// JSONB; RawText keeps the OCR output they were extracted from.
type Prescription struct {
	ID                uuid.UUID        `db:"id" json:"id"`
	AccountID         string           `db:"account_id" json:"account_id"`
	Medications       []MedicationItem `db:"medications" json:"medications"`
	RawText           string           `db:"raw_text" json:"raw_text"`
	ExtractedAt       time.Time        `db:"extracted_at" json:"extracted_at"`
	ImageURL          *string          `db:"image_url" json:"image_url,omitempty"`
	HealthSuggestions *string          `db:"health_suggestions" json:"health_suggestions,omitempty"`
	SavedAt           time.Time        `db:"saved_at" json:"saved_at"`
}

// Report maps to the report table.
type Report struct {
	ID         uuid.UUID `db:"id" json:"id"`
	AccountID  string    `db:"account_id" json:"account_id"`
	Title      string    `db:"title" json:"title"`
	Type       string    `db:"type" json:"type"`
	Content    *string   `db:"content" json:"content,omitempty"`
	Status     *string   `db:"status" json:"status,omitempty"`
	Urgent     bool      `db:"urgent" json:"urgent"`
	ReportDate time.Time `db:"report_date" json:"report_date"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Appointment statuses.
const (
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// Appointment maps to the appointment table.
type Appointment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	AccountID   string    `db:"account_id" json:"account_id"`
	Title       string    `db:"title" json:"title"`
	Provider    *string   `db:"provider" json:"provider,omitempty"`
	Location    *string   `db:"location" json:"location,omitempty"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
