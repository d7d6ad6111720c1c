package family

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healthmate/healthmate/internal/platform/events"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service implements the invitation lifecycle and the relationship directory.
type Service struct {
	repo      Repository
	bus       *events.Bus
	inviteTTL time.Duration
}

// NewService constructs a family Service. bus may be nil when no side
// effects are wanted (CLI tooling, tests).
func NewService(repo Repository, bus *events.Bus, inviteTTL time.Duration) *Service {
	return &Service{repo: repo, bus: bus, inviteTTL: inviteTTL}
}

func (s *Service) cutoff() time.Time {
	return time.Now().UTC().Add(-s.inviteTTL)
}

func (s *Service) publish(ctx context.Context, topic string, payload map[string]string) {
	if s.bus != nil {
		s.bus.Publish(ctx, topic, payload)
	}
}

// InviteRequest carries the input for creating an invitation.
type InviteRequest struct {
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Role        Role               `json:"role"`
	CustomRole  *string            `json:"custom_role,omitempty"`
	Permissions *AccessPermissions `json:"permissions,omitempty"`
}

// Invite creates a pending invitation from the patient to req.Email. The
// stored email is lower-cased so later lookups by the invitee's login email
// match regardless of casing. Permissions default from the role unless the
// patient supplied an explicit grant.
func (s *Service) Invite(ctx context.Context, patientUID, inviterEmail string, req InviteRequest) (*FamilyMember, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, validationErr("name", "is required")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailRe.MatchString(email) {
		return nil, validationErr("email", "is not a valid email address")
	}
	if email == strings.ToLower(inviterEmail) {
		return nil, validationErr("email", "cannot invite yourself")
	}
	if !validRoles[req.Role] {
		return nil, validationErr("role", "is not a valid relationship")
	}
	// custom_role travels with the "other" role only.
	if req.Role == RoleOther {
		if req.CustomRole == nil || strings.TrimSpace(*req.CustomRole) == "" {
			return nil, validationErr("custom_role", "is required when role is other")
		}
		label := strings.TrimSpace(*req.CustomRole)
		req.CustomRole = &label
	} else {
		req.CustomRole = nil
	}

	exists, err := s.repo.HasLiveInvite(ctx, patientUID, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, validationErr("email", "already has a pending or accepted invitation")
	}

	perms := DefaultPermissions(req.Role)
	if req.Permissions != nil {
		perms = *req.Permissions
	}

	m := &FamilyMember{
		PatientUID:   patientUID,
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Role:         req.Role,
		CustomRole:   req.CustomRole,
		InviteStatus: StatusPending,
		InviteToken:  uuid.NewString(),
		Permissions:  perms,
	}
	if err := s.repo.CreateMember(ctx, m); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TopicInvitationCreated, map[string]string{
		"recipient":    m.Email,
		"email":        m.Email,
		"inviter_name": inviterEmail,
		"relationship": RoleLabels[m.Role],
		"patient_uid":  patientUID,
	})
	return m, nil
}

// Accept consumes the invitation token on behalf of the accepting account.
// The token is single-use: once claimed, subsequent calls see
// ErrInviteNotFound. On success the invitee holds an active relationship
// carrying the permissions fixed at invite time.
func (s *Service) Accept(ctx context.Context, token, familyMemberUID string) (*FamilyMember, *FamilyRelationship, error) {
	if token == "" {
		return nil, nil, ErrInviteNotFound
	}
	m, rel, err := s.repo.Accept(ctx, token, familyMemberUID, s.cutoff())
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.TopicInvitationAccepted, map[string]string{
		"member_name": m.Name,
		"email":       m.Email,
		"patient_uid": m.PatientUID,
	})
	return m, rel, nil
}

// Reject declines the pending invitation identified by token.
func (s *Service) Reject(ctx context.Context, token string) error {
	if token == "" {
		return ErrInviteNotFound
	}
	m, err := s.repo.Reject(ctx, token, s.cutoff())
	if err != nil {
		return err
	}

	s.publish(ctx, events.TopicInvitationRejected, map[string]string{
		"email":       m.Email,
		"patient_uid": m.PatientUID,
	})
	return nil
}

// ListPendingForEmail returns live pending invitations addressed to the
// given email. Invitations older than the TTL are excluded even if the
// expiry sweep has not flipped them yet.
func (s *Service) ListPendingForEmail(ctx context.Context, email string) ([]*FamilyMember, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, validationErr("email", "is required")
	}
	return s.repo.ListPendingByEmail(ctx, email, s.cutoff())
}

// ListForPatient returns every invitation the patient has sent, newest first.
func (s *Service) ListForPatient(ctx context.Context, patientUID string, limit, offset int) ([]*FamilyMember, int, error) {
	return s.repo.ListByPatient(ctx, patientUID, limit, offset)
}

// Remove deletes an invitation and revokes any active access it granted.
// Only the patient who sent the invitation may remove it.
func (s *Service) Remove(ctx context.Context, patientUID string, memberID uuid.UUID) error {
	m, err := s.repo.GetMemberByID(ctx, memberID)
	if err != nil {
		return err
	}
	if m.PatientUID != patientUID {
		return ErrNotAuthorized
	}
	if err := s.repo.Remove(ctx, m); err != nil {
		return err
	}

	s.publish(ctx, events.TopicMemberRemoved, map[string]string{
		"recipient":   m.Email,
		"email":       m.Email,
		"patient_uid": m.PatientUID,
	})
	return nil
}

// GetMember returns the invitation record by id.
func (s *Service) GetMember(ctx context.Context, id uuid.UUID) (*FamilyMember, error) {
	return s.repo.GetMemberByID(ctx, id)
}

// RelationshipsFor returns the active grants held by the given account, i.e.
// the patients whose data it may view.
func (s *Service) RelationshipsFor(ctx context.Context, familyMemberUID string) ([]*FamilyRelationship, error) {
	return s.repo.ActiveRelationshipsByMember(ctx, familyMemberUID)
}

// PermissionsFor resolves what the viewer may see of the patient's data.
// A patient always has full access to their own data; anyone else needs an
// active relationship. The second return value reports whether any access
// exists at all.
func (s *Service) PermissionsFor(ctx context.Context, viewerUID, patientUID string) (AccessPermissions, bool, error) {
	if viewerUID == patientUID {
		return fullAccess, true, nil
	}
	rel, err := s.repo.ActiveRelationship(ctx, patientUID, viewerUID)
	if err != nil {
		return NoAccess, false, err
	}
	if rel == nil {
		return NoAccess, false, nil
	}
	return rel.Permissions, true, nil
}

// UpdatePermissions replaces the grant on an accepted member's relationship.
// Only the owning patient may change it.
func (s *Service) UpdatePermissions(ctx context.Context, patientUID string, memberID uuid.UUID, perms AccessPermissions) error {
	m, err := s.repo.GetMemberByID(ctx, memberID)
	if err != nil {
		return err
	}
	if m.PatientUID != patientUID {
		return ErrNotAuthorized
	}
	if m.FamilyMemberUID == nil {
		return validationErr("member", "has not accepted the invitation yet")
	}
	rel, err := s.repo.ActiveRelationship(ctx, patientUID, *m.FamilyMemberUID)
	if err != nil {
		return err
	}
	if rel == nil {
		return ErrMemberNotFound
	}
	return s.repo.UpdateRelationshipPermissions(ctx, rel.ID, perms)
}

// ExpireStale flips pending invitations older than the TTL to expired and
// returns how many were affected. Run periodically by the sweep job.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	expired, err := s.repo.ExpireStale(ctx, s.cutoff())
	if err != nil {
		return 0, err
	}
	for _, m := range expired {
		s.publish(ctx, events.TopicInvitationExpired, map[string]string{
			"email":       m.Email,
			"patient_uid": m.PatientUID,
		})
	}
	return len(expired), nil
}
