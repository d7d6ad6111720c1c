// Package familyhealth projects a family member's health data for the
// patient who invited them. It never reads health tables for an account
// until the invitation record has been resolved to that account and the
// active relationship's permissions allow the category.
package familyhealth

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthmate/healthmate/internal/domain/family"
	"github.com/healthmate/healthmate/internal/domain/health"
)

// FamilyDirectory resolves invitation records and the grants between
// accounts. Satisfied by *family.Service.
type FamilyDirectory interface {
	GetMember(ctx context.Context, id uuid.UUID) (*family.FamilyMember, error)
	PermissionsFor(ctx context.Context, viewerUID, patientUID string) (family.AccessPermissions, bool, error)
}

// HealthReader is the read-only slice of the health service the projector
// needs. Satisfied by *health.Service.
type HealthReader interface {
	GetVitals(ctx context.Context, accountID string) (*health.Vitals, error)
	ListPrescriptions(ctx context.Context, accountID string, limit int) ([]*health.Prescription, error)
	ListReports(ctx context.Context, accountID string, limit int) ([]*health.Report, error)
	ListAppointments(ctx context.Context, accountID string, limit int) ([]*health.Appointment, error)
}

// Overview is the combined projection of one family member's health data.
// Resolved is false when the member has not accepted yet or the grant has
// been revoked; all data fields are then empty. Errors carries per-category
// fetch failures so one slow or broken category does not sink the rest.
type Overview struct {
	MemberID      uuid.UUID              `json:"member_id"`
	MemberName    string                 `json:"member_name"`
	Resolved      bool                   `json:"resolved"`
	Permissions   family.AccessPermissions `json:"permissions"`
	Vitals        *health.Vitals         `json:"vitals,omitempty"`
	Prescriptions []*health.Prescription `json:"prescriptions,omitempty"`
	Reports       []*health.Report       `json:"reports,omitempty"`
	Appointments  []*health.Appointment  `json:"appointments,omitempty"`
	Errors        map[string]string      `json:"errors,omitempty"`
}

const projectionLimit = 10

type Service struct {
	directory FamilyDirectory
	reader    HealthReader
	logger    zerolog.Logger
}

func NewService(directory FamilyDirectory, reader HealthReader, logger zerolog.Logger) *Service {
	return &Service{
		directory: directory,
		reader:    reader,
		logger:    logger.With().Str("component", "familyhealth").Logger(),
	}
}

// resolve maps a member id to the target account and the grant between the
// pair. An empty target with nil error means the projection is empty: the
// invitation record is gone, the invitee has not accepted, or access has
// been revoked.
func (s *Service) resolve(ctx context.Context, viewerUID string, memberID uuid.UUID) (*family.FamilyMember, string, family.AccessPermissions, error) {
	m, err := s.directory.GetMember(ctx, memberID)
	if errors.Is(err, family.ErrMemberNotFound) {
		return nil, "", family.NoAccess, nil
	}
	if err != nil {
		return nil, "", family.NoAccess, err
	}
	if m.PatientUID != viewerUID {
		return nil, "", family.NoAccess, family.ErrNotAuthorized
	}
	if m.FamilyMemberUID == nil || m.InviteStatus != family.StatusAccepted {
		return m, "", family.NoAccess, nil
	}
	perms, ok, err := s.directory.PermissionsFor(ctx, *m.FamilyMemberUID, viewerUID)
	if err != nil {
		return nil, "", family.NoAccess, err
	}
	if !ok {
		return m, "", family.NoAccess, nil
	}
	return m, *m.FamilyMemberUID, perms, nil
}

// GetOverview fetches every permitted category concurrently and assembles
// the projection. Category failures are captured per-category and logged,
// never fatal for the whole overview.
func (s *Service) GetOverview(ctx context.Context, viewerUID string, memberID uuid.UUID) (*Overview, error) {
	m, target, perms, err := s.resolve(ctx, viewerUID, memberID)
	if err != nil {
		return nil, err
	}

	ov := &Overview{
		MemberID:    memberID,
		Permissions: perms,
	}
	if m != nil {
		ov.MemberName = m.Name
	}
	if target == "" {
		return ov, nil
	}
	ov.Resolved = true

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures = make(map[string]string)
	)
	fail := func(category string, err error) {
		s.logger.Warn().Str("category", category).Str("member_id", memberID.String()).Err(err).
			Msg("projection category failed")
		mu.Lock()
		failures[category] = err.Error()
		mu.Unlock()
	}

	if perms.CanViewVitals {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.reader.GetVitals(ctx, target)
			if err != nil {
				fail("vitals", err)
				return
			}
			ov.Vitals = v
		}()
	}
	if perms.CanViewMedications {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := s.reader.ListPrescriptions(ctx, target, projectionLimit)
			if err != nil {
				fail("prescriptions", err)
				return
			}
			ov.Prescriptions = items
		}()
	}
	if perms.CanViewReports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := s.reader.ListReports(ctx, target, projectionLimit)
			if err != nil {
				fail("reports", err)
				return
			}
			ov.Reports = items
		}()
	}
	if perms.CanViewAppointments {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := s.reader.ListAppointments(ctx, target, projectionLimit)
			if err != nil {
				fail("appointments", err)
				return
			}
			ov.Appointments = items
		}()
	}
	wg.Wait()

	if len(failures) > 0 {
		ov.Errors = failures
	}
	return ov, nil
}

// GetVitals returns the member's vitals snapshot, or nil when unresolved.
func (s *Service) GetVitals(ctx context.Context, viewerUID string, memberID uuid.UUID) (*health.Vitals, error) {
	_, target, perms, err := s.resolve(ctx, viewerUID, memberID)
	if err != nil {
		return nil, err
	}
	if target == "" {
		return nil, nil
	}
	if !perms.CanViewVitals {
		return nil, family.ErrNotAuthorized
	}
	return s.reader.GetVitals(ctx, target)
}

// GetPrescriptions returns the member's recent prescriptions, or an empty
// slice when unresolved.
func (s *Service) GetPrescriptions(ctx context.Context, viewerUID string, memberID uuid.UUID) ([]*health.Prescription, error) {
	_, target, perms, err := s.resolve(ctx, viewerUID, memberID)
	if err != nil {
		return nil, err
	}
	if target == "" {
		return nil, nil
	}
	if !perms.CanViewMedications {
		return nil, family.ErrNotAuthorized
	}
	return s.reader.ListPrescriptions(ctx, target, projectionLimit)
}

// GetReports returns the member's recent reports, or an empty slice when
// unresolved.
func (s *Service) GetReports(ctx context.Context, viewerUID string, memberID uuid.UUID) ([]*health.Report, error) {
	_, target, perms, err := s.resolve(ctx, viewerUID, memberID)
	if err != nil {
		return nil, err
	}
	if target == "" {
		return nil, nil
	}
	if !perms.CanViewReports {
		return nil, family.ErrNotAuthorized
	}
	return s.reader.ListReports(ctx, target, projectionLimit)
}
