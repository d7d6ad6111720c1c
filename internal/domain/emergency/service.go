package emergency

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/healthmate/healthmate/internal/domain/family"
	"github.com/healthmate/healthmate/internal/platform/events"
)

// DefaultFeedLimit bounds the family alert feed.
const DefaultFeedLimit = 10

// FamilyDirectory is the slice of the family service the alert flow needs:
// who to notify when a patient raises an alert, and whose alerts a viewer
// may see. Satisfied by *family.Service.
type FamilyDirectory interface {
	ListForPatient(ctx context.Context, patientUID string, limit, offset int) ([]*family.FamilyMember, int, error)
	RelationshipsFor(ctx context.Context, familyMemberUID string) ([]*family.FamilyRelationship, error)
	PermissionsFor(ctx context.Context, viewerUID, patientUID string) (family.AccessPermissions, bool, error)
}

type Service struct {
	repo      Repository
	directory FamilyDirectory
	bus       *events.Bus
}

func NewService(repo Repository, directory FamilyDirectory, bus *events.Bus) *Service {
	return &Service{repo: repo, directory: directory, bus: bus}
}

// RaiseAlert records an emergency alert and fans it out to every family
// member with an accepted invitation from the patient. Notification failures
// never fail the alert itself.
func (s *Service) RaiseAlert(ctx context.Context, patientUID, patientName, message string, lat, lon *float64) (*Alert, error) {
	if strings.TrimSpace(patientName) == "" {
		return nil, fmt.Errorf("patient_name is required")
	}
	if message == "" {
		message = "emergency assistance requested"
	}

	a := &Alert{
		PatientUID:  patientUID,
		PatientName: patientName,
		Message:     message,
		Latitude:    lat,
		Longitude:   lon,
		Status:      StatusActive,
	}
	if err := s.repo.CreateAlert(ctx, a); err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.TopicEmergencyAlert, map[string]string{
			"recipients":   strings.Join(s.notifyList(ctx, patientUID), ","),
			"patient_name": patientName,
			"patient_uid":  patientUID,
			"message":      message,
			"location":     formatLocation(lat, lon),
			"alert_id":     a.ID.String(),
		})
	}
	return a, nil
}

// notifyList gathers the emails of accepted family members. Best effort:
// a directory failure just means nobody gets paged, the alert still stands.
func (s *Service) notifyList(ctx context.Context, patientUID string) []string {
	members, _, err := s.directory.ListForPatient(ctx, patientUID, 100, 0)
	if err != nil {
		return nil
	}
	var out []string
	for _, m := range members {
		if m.InviteStatus == family.StatusAccepted {
			out = append(out, m.Email)
		}
	}
	return out
}

func formatLocation(lat, lon *float64) string {
	if lat == nil || lon == nil {
		return "unknown"
	}
	return strconv.FormatFloat(*lat, 'f', 6, 64) + "," + strconv.FormatFloat(*lon, 'f', 6, 64)
}

// ResolveAlert marks the patient's own active alert as resolved.
func (s *Service) ResolveAlert(ctx context.Context, patientUID string, id uuid.UUID) (*Alert, error) {
	a, err := s.repo.GetAlertByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.PatientUID != patientUID {
		return nil, family.ErrNotAuthorized
	}
	resolved, err := s.repo.ResolveAlert(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.TopicEmergencyResolved, map[string]string{
			"recipients":   strings.Join(s.notifyList(ctx, patientUID), ","),
			"patient_name": resolved.PatientName,
			"patient_uid":  patientUID,
		})
	}
	return resolved, nil
}

// FamilyFeed returns recent alerts from the patients the viewer holds an
// active grant on. The viewer's own alerts are never included.
func (s *Service) FamilyFeed(ctx context.Context, viewerUID string, limit int) ([]*Alert, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	rels, err := s.directory.RelationshipsFor(ctx, viewerUID)
	if err != nil {
		return nil, err
	}
	var patients []string
	for _, rel := range rels {
		if rel.PatientUID != viewerUID {
			patients = append(patients, rel.PatientUID)
		}
	}
	return s.repo.ListAlertsByPatients(ctx, patients, limit)
}

// OwnAlerts returns the patient's own alert history.
func (s *Service) OwnAlerts(ctx context.Context, patientUID string, limit int) ([]*Alert, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	return s.repo.ListAlertsByPatient(ctx, patientUID, limit)
}

// AddContact stores an emergency contact for the account.
func (s *Service) AddContact(ctx context.Context, accountID string, c *Contact) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return fmt.Errorf("phone is required")
	}
	c.AccountID = accountID
	return s.repo.CreateContact(ctx, c)
}

// ContactsFor returns a patient's emergency contacts. The patient sees their
// own; a family member needs the emergency contacts grant.
func (s *Service) ContactsFor(ctx context.Context, viewerUID, patientUID string) ([]*Contact, error) {
	if viewerUID != patientUID {
		perms, ok, err := s.directory.PermissionsFor(ctx, viewerUID, patientUID)
		if err != nil {
			return nil, err
		}
		if !ok || !perms.CanViewEmergencyContacts {
			return nil, family.ErrNotAuthorized
		}
	}
	return s.repo.ListContacts(ctx, patientUID)
}

// RemoveContact deletes one of the account's own contacts.
func (s *Service) RemoveContact(ctx context.Context, accountID string, id uuid.UUID) error {
	return s.repo.DeleteContact(ctx, accountID, id)
}
