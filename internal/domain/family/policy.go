package family

// Role is the relationship of an invited family member to the patient.
type Role string

const (
	RoleParent    Role = "parent"
	RoleChild     Role = "child"
	RoleSpouse    Role = "spouse"
	RoleSibling   Role = "sibling"
	RoleGuardian  Role = "guardian"
	RoleCaregiver Role = "caregiver"
	RoleOther     Role = "other"
)

var validRoles = map[Role]bool{
	RoleParent: true, RoleChild: true, RoleSpouse: true,
	RoleSibling: true, RoleGuardian: true, RoleCaregiver: true,
	RoleOther: true,
}

// RoleLabels maps roles to their display names.
var RoleLabels = map[Role]string{
	RoleParent:    "Parent",
	RoleChild:     "Child",
	RoleSpouse:    "Spouse",
	RoleSibling:   "Sibling",
	RoleGuardian:  "Guardian",
	RoleCaregiver: "Caregiver",
	RoleOther:     "Other",
}

// AccessPermissions is the set of data categories a family member may read.
// It is stored as JSONB alongside both the invitation and the relationship.
type AccessPermissions struct {
	CanViewMedications       bool `json:"can_view_medications"`
	CanViewVitals            bool `json:"can_view_vitals"`
	CanViewAppointments      bool `json:"can_view_appointments"`
	CanViewReports           bool `json:"can_view_reports"`
	CanViewEmergencyContacts bool `json:"can_view_emergency_contacts"`
}

// NoAccess is the zero permission set returned when no active relationship
// exists between viewer and patient.
var NoAccess = AccessPermissions{}

var fullAccess = AccessPermissions{
	CanViewMedications:       true,
	CanViewVitals:            true,
	CanViewAppointments:      true,
	CanViewReports:           true,
	CanViewEmergencyContacts: true,
}

// defaultPermissions fixes the grant for each role. Parents, spouses and
// guardians see everything; caregivers see medications, vitals and emergency
// contacts; everyone else sees vitals only.
var defaultPermissions = map[Role]AccessPermissions{
	RoleParent:   fullAccess,
	RoleSpouse:   fullAccess,
	RoleGuardian: fullAccess,
	RoleCaregiver: {
		CanViewMedications:       true,
		CanViewVitals:            true,
		CanViewEmergencyContacts: true,
	},
	RoleChild:   {CanViewVitals: true},
	RoleSibling: {CanViewVitals: true},
	RoleOther:   {CanViewVitals: true},
}

// DefaultPermissions returns the default grant for a role. Unknown roles get
// the most restrictive grant, the same as RoleOther.
func DefaultPermissions(role Role) AccessPermissions {
	if p, ok := defaultPermissions[role]; ok {
		return p
	}
	return defaultPermissions[RoleOther]
}
