package health

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultListLimit bounds health data listings when the caller does not ask
// for a specific page size.
const DefaultListLimit = 10

// Service implements the per-account health data operations. All operations
// are scoped to the owning account; delegated access for family members goes
// through the familyhealth projector, never through this service directly.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SyncVitals overwrites the account's vitals snapshot.
func (s *Service) SyncVitals(ctx context.Context, accountID string, v *Vitals) error {
	if accountID == "" {
		return fmt.Errorf("account_id is required")
	}
	v.AccountID = accountID
	return s.repo.UpsertVitals(ctx, v)
}

// GetVitals returns the account's latest vitals, or nil when never synced.
func (s *Service) GetVitals(ctx context.Context, accountID string) (*Vitals, error) {
	return s.repo.GetVitals(ctx, accountID)
}

// SavePrescription stores an extracted prescription for the account.
func (s *Service) SavePrescription(ctx context.Context, accountID string, p *Prescription) error {
	if len(p.Medications) == 0 {
		return fmt.Errorf("medications are required")
	}
	for i, med := range p.Medications {
		if strings.TrimSpace(med.Name) == "" {
			return fmt.Errorf("medication %d: name is required", i)
		}
	}
	p.AccountID = accountID
	if p.ExtractedAt.IsZero() {
		p.ExtractedAt = time.Now().UTC()
	}
	return s.repo.CreatePrescription(ctx, p)
}

// ListPrescriptions returns the account's prescriptions, newest first.
func (s *Service) ListPrescriptions(ctx context.Context, accountID string, limit int) ([]*Prescription, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.repo.ListPrescriptions(ctx, accountID, limit)
}

// DeletePrescription removes one of the account's own prescriptions.
func (s *Service) DeletePrescription(ctx context.Context, accountID string, id uuid.UUID) error {
	return s.repo.DeletePrescription(ctx, accountID, id)
}

// SaveReport stores a medical report for the account.
func (s *Service) SaveReport(ctx context.Context, accountID string, r *Report) error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if r.Type == "" {
		r.Type = "General"
	}
	if r.ReportDate.IsZero() {
		r.ReportDate = time.Now().UTC()
	}
	r.AccountID = accountID
	return s.repo.CreateReport(ctx, r)
}

// ListReports returns the account's reports, newest first.
func (s *Service) ListReports(ctx context.Context, accountID string, limit int) ([]*Report, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.repo.ListReports(ctx, accountID, limit)
}

var validAppointmentStatuses = map[string]bool{
	AppointmentScheduled: true,
	AppointmentCompleted: true,
	AppointmentCancelled: true,
}

// ScheduleAppointment creates an appointment for the account.
func (s *Service) ScheduleAppointment(ctx context.Context, accountID string, a *Appointment) error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if a.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	a.AccountID = accountID
	a.Status = AppointmentScheduled
	return s.repo.CreateAppointment(ctx, a)
}

// ListAppointments returns the account's appointments, newest first.
func (s *Service) ListAppointments(ctx context.Context, accountID string, limit int) ([]*Appointment, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.repo.ListAppointments(ctx, accountID, limit)
}

// SetAppointmentStatus transitions one of the account's appointments.
func (s *Service) SetAppointmentStatus(ctx context.Context, accountID string, id uuid.UUID, status string) error {
	if !validAppointmentStatuses[status] {
		return fmt.Errorf("invalid status: %s", status)
	}
	return s.repo.UpdateAppointmentStatus(ctx, accountID, id, status)
}
