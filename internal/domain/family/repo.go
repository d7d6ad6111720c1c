package family

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the storage contract for invitations and relationships.
type Repository interface {
	CreateMember(ctx context.Context, m *FamilyMember) error
	GetMemberByID(ctx context.Context, id uuid.UUID) (*FamilyMember, error)
	// HasLiveInvite reports whether the patient already has a pending or
	// accepted invitation for the given email.
	HasLiveInvite(ctx context.Context, patientUID, email string) (bool, error)
	ListByPatient(ctx context.Context, patientUID string, limit, offset int) ([]*FamilyMember, int, error)
	ListPendingByEmail(ctx context.Context, email string, cutoff time.Time) ([]*FamilyMember, error)

	// Accept atomically claims the pending invitation identified by token,
	// retires any stale relationship between the same pair, and creates the
	// new active relationship. Returns ErrInviteNotFound if the token does
	// not resolve to a live pending invitation.
	Accept(ctx context.Context, token, familyMemberUID string, cutoff time.Time) (*FamilyMember, *FamilyRelationship, error)
	// Reject marks the pending invitation identified by token as rejected.
	Reject(ctx context.Context, token string, cutoff time.Time) (*FamilyMember, error)
	// Remove deletes the invitation record and deactivates any active
	// relationship between the patient and the accepted member.
	Remove(ctx context.Context, m *FamilyMember) error
	// ExpireStale flips pending invitations older than cutoff to expired and
	// returns the affected rows.
	ExpireStale(ctx context.Context, cutoff time.Time) ([]*FamilyMember, error)

	ActiveRelationshipsByMember(ctx context.Context, familyMemberUID string) ([]*FamilyRelationship, error)
	// ActiveRelationship returns the active grant between viewer and patient,
	// or nil when none exists.
	ActiveRelationship(ctx context.Context, patientUID, familyMemberUID string) (*FamilyRelationship, error)
	UpdateRelationshipPermissions(ctx context.Context, id uuid.UUID, perms AccessPermissions) error
}
