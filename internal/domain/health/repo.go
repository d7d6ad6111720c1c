package health

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a health record does not exist or is owned by
// a different account.
var ErrNotFound = errors.New("record not found")

// Repository is the storage contract for per-account health data.
type Repository interface {
	// UpsertVitals writes the single vitals row for the account.
	UpsertVitals(ctx context.Context, v *Vitals) error
	// GetVitals returns the account's vitals, or nil when never synced.
	GetVitals(ctx context.Context, accountID string) (*Vitals, error)

	CreatePrescription(ctx context.Context, p *Prescription) error
	ListPrescriptions(ctx context.Context, accountID string, limit int) ([]*Prescription, error)
	DeletePrescription(ctx context.Context, accountID string, id uuid.UUID) error

	CreateReport(ctx context.Context, r *Report) error
	ListReports(ctx context.Context, accountID string, limit int) ([]*Report, error)

	CreateAppointment(ctx context.Context, a *Appointment) error
	ListAppointments(ctx context.Context, accountID string, limit int) ([]*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, accountID string, id uuid.UUID, status string) error
}
