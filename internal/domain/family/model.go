package family

import (
	"time"

	"github.com/google/uuid"
)

// Invite statuses.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusExpired  = "expired"
)

// FamilyMember maps to the family_member table. One row per invitation a
// patient has sent; FamilyMemberUID is filled in once the invitee accepts.
type FamilyMember struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	PatientUID      string            `db:"patient_uid" json:"patient_uid"`
	Name            string            `db:"name" json:"name"`
	Email           string            `db:"email" json:"email"`
	Role            Role              `db:"role" json:"role"`
	CustomRole      *string           `db:"custom_role" json:"custom_role,omitempty"`
	InviteStatus    string            `db:"invite_status" json:"invite_status"`
	InviteToken     string            `db:"invite_token" json:"-"`
	Permissions     AccessPermissions `db:"permissions" json:"permissions"`
	FamilyMemberUID *string           `db:"family_member_uid" json:"family_member_uid,omitempty"`
	InvitedAt       time.Time         `db:"invited_at" json:"invited_at"`
	RespondedAt     *time.Time        `db:"responded_at" json:"responded_at,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// FamilyRelationship maps to the family_relationship table. An active row
// grants FamilyMemberUID delegated read access to PatientUID's health data
// under Permissions. Rows are deactivated rather than deleted so that access
// history survives removal.
type FamilyRelationship struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	PatientUID      string            `db:"patient_uid" json:"patient_uid"`
	FamilyMemberUID string            `db:"family_member_uid" json:"family_member_uid"`
	Role            Role              `db:"role" json:"role"`
	CustomRole      *string           `db:"custom_role" json:"custom_role,omitempty"`
	Permissions     AccessPermissions `db:"permissions" json:"permissions"`
	IsActive        bool              `db:"is_active" json:"is_active"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}
