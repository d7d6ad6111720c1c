package family

import "testing"

func TestDefaultPermissions_FullAccessRoles(t *testing.T) {
	for _, role := range []Role{RoleParent, RoleSpouse, RoleGuardian} {
		p := DefaultPermissions(role)
		if !p.CanViewMedications || !p.CanViewVitals || !p.CanViewAppointments ||
			!p.CanViewReports || !p.CanViewEmergencyContacts {
			t.Errorf("role %s should have full access, got %+v", role, p)
		}
	}
}

func TestDefaultPermissions_Caregiver(t *testing.T) {
	p := DefaultPermissions(RoleCaregiver)
	if !p.CanViewMedications || !p.CanViewVitals || !p.CanViewEmergencyContacts {
		t.Errorf("caregiver missing expected grants: %+v", p)
	}
	if p.CanViewAppointments || p.CanViewReports {
		t.Errorf("caregiver should not see appointments or reports: %+v", p)
	}
}

func TestDefaultPermissions_VitalsOnlyRoles(t *testing.T) {
	for _, role := range []Role{RoleChild, RoleSibling, RoleOther} {
		p := DefaultPermissions(role)
		if !p.CanViewVitals {
			t.Errorf("role %s should see vitals", role)
		}
		if p.CanViewMedications || p.CanViewAppointments || p.CanViewReports || p.CanViewEmergencyContacts {
			t.Errorf("role %s should see vitals only, got %+v", role, p)
		}
	}
}

func TestDefaultPermissions_UnknownRoleIsMostRestrictive(t *testing.T) {
	p := DefaultPermissions(Role("grandparent"))
	if p != DefaultPermissions(RoleOther) {
		t.Errorf("unknown role should fall back to other's grant, got %+v", p)
	}
}

func TestDefaultPermissions_Deterministic(t *testing.T) {
	for role := range validRoles {
		if DefaultPermissions(role) != DefaultPermissions(role) {
			t.Errorf("grant for %s is not stable", role)
		}
	}
}
