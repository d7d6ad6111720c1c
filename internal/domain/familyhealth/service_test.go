package familyhealth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthmate/healthmate/internal/domain/family"
	"github.com/healthmate/healthmate/internal/domain/health"
)

// -- Mocks --

type pair struct{ patient, member string }

type mockDirectory struct {
	members map[uuid.UUID]*family.FamilyMember
	grants  map[pair]family.AccessPermissions
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		members: make(map[uuid.UUID]*family.FamilyMember),
		grants:  make(map[pair]family.AccessPermissions),
	}
}

func (m *mockDirectory) GetMember(_ context.Context, id uuid.UUID) (*family.FamilyMember, error) {
	fm, ok := m.members[id]
	if !ok {
		return nil, family.ErrMemberNotFound
	}
	return fm, nil
}

func (m *mockDirectory) PermissionsFor(_ context.Context, viewerUID, patientUID string) (family.AccessPermissions, bool, error) {
	perms, ok := m.grants[pair{patient: patientUID, member: viewerUID}]
	if !ok {
		return family.NoAccess, false, nil
	}
	return perms, true, nil
}

type mockReader struct {
	vitals        map[string]*health.Vitals
	prescriptions map[string][]*health.Prescription
	reports       map[string][]*health.Report
	appointments  map[string][]*health.Appointment
	failing       map[string]error
}

func newMockReader() *mockReader {
	return &mockReader{
		vitals:        make(map[string]*health.Vitals),
		prescriptions: make(map[string][]*health.Prescription),
		reports:       make(map[string][]*health.Report),
		appointments:  make(map[string][]*health.Appointment),
		failing:       make(map[string]error),
	}
}

func (m *mockReader) GetVitals(_ context.Context, accountID string) (*health.Vitals, error) {
	if err := m.failing["vitals"]; err != nil {
		return nil, err
	}
	return m.vitals[accountID], nil
}

func (m *mockReader) ListPrescriptions(_ context.Context, accountID string, _ int) ([]*health.Prescription, error) {
	if err := m.failing["prescriptions"]; err != nil {
		return nil, err
	}
	return m.prescriptions[accountID], nil
}

func (m *mockReader) ListReports(_ context.Context, accountID string, _ int) ([]*health.Report, error) {
	if err := m.failing["reports"]; err != nil {
		return nil, err
	}
	return m.reports[accountID], nil
}

func (m *mockReader) ListAppointments(_ context.Context, accountID string, _ int) ([]*health.Appointment, error) {
	if err := m.failing["appointments"]; err != nil {
		return nil, err
	}
	return m.appointments[accountID], nil
}

func newTestService() (*Service, *mockDirectory, *mockReader) {
	dir := newMockDirectory()
	reader := newMockReader()
	return NewService(dir, reader, zerolog.Nop()), dir, reader
}

func acceptedMember(dir *mockDirectory, patientUID, memberUID string, perms family.AccessPermissions) uuid.UUID {
	id := uuid.New()
	uid := memberUID
	dir.members[id] = &family.FamilyMember{
		ID:              id,
		PatientUID:      patientUID,
		Name:            "Sam",
		Email:           "sam@example.com",
		Role:            family.RoleCaregiver,
		InviteStatus:    family.StatusAccepted,
		FamilyMemberUID: &uid,
	}
	dir.grants[pair{patient: patientUID, member: memberUID}] = perms
	return id
}

// -- Tests --

func TestGetOverview_PermissionGatedCategories(t *testing.T) {
	svc, dir, reader := newTestService()
	id := acceptedMember(dir, "patient-1", "member-1", family.DefaultPermissions(family.RoleCaregiver))
	reader.vitals["member-1"] = &health.Vitals{AccountID: "member-1", HeartRate: "72", LastUpdated: time.Now()}
	reader.prescriptions["member-1"] = []*health.Prescription{{AccountID: "member-1"}}
	reader.reports["member-1"] = []*health.Report{{AccountID: "member-1", Title: "Blood Panel"}}

	ov, err := svc.GetOverview(context.Background(), "patient-1", id)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if !ov.Resolved {
		t.Fatal("expected resolved projection")
	}
	if ov.Vitals == nil || ov.Vitals.HeartRate != "72" {
		t.Errorf("expected vitals in overview, got %+v", ov.Vitals)
	}
	if len(ov.Prescriptions) != 1 {
		t.Errorf("expected prescriptions, got %d", len(ov.Prescriptions))
	}
	// caregiver grant excludes reports and appointments
	if ov.Reports != nil {
		t.Errorf("reports should be gated off for caregiver, got %v", ov.Reports)
	}
	if ov.Appointments != nil {
		t.Errorf("appointments should be gated off for caregiver, got %v", ov.Appointments)
	}
}

func TestGetOverview_PendingMemberIsEmpty(t *testing.T) {
	svc, dir, _ := newTestService()
	id := uuid.New()
	dir.members[id] = &family.FamilyMember{
		ID:           id,
		PatientUID:   "patient-1",
		Name:         "Sam",
		InviteStatus: family.StatusPending,
	}

	ov, err := svc.GetOverview(context.Background(), "patient-1", id)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.Resolved {
		t.Error("pending member should yield an unresolved projection")
	}
	if ov.Vitals != nil || ov.Prescriptions != nil || ov.Reports != nil {
		t.Error("unresolved projection should carry no data")
	}
}

func TestGetOverview_RevokedGrantIsEmpty(t *testing.T) {
	svc, dir, reader := newTestService()
	id := acceptedMember(dir, "patient-1", "member-1", family.DefaultPermissions(family.RoleSpouse))
	reader.vitals["member-1"] = &health.Vitals{AccountID: "member-1", HeartRate: "72"}
	delete(dir.grants, pair{patient: "patient-1", member: "member-1"})

	ov, err := svc.GetOverview(context.Background(), "patient-1", id)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.Resolved || ov.Vitals != nil {
		t.Error("revoked grant should yield an empty projection")
	}
}

func TestGetOverview_OnlyInvitingPatient(t *testing.T) {
	svc, dir, _ := newTestService()
	id := acceptedMember(dir, "patient-1", "member-1", family.DefaultPermissions(family.RoleSpouse))

	_, err := svc.GetOverview(context.Background(), "patient-2", id)
	if !errors.Is(err, family.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestGetOverview_RemovedMemberIsEmpty(t *testing.T) {
	svc, _, _ := newTestService()

	ov, err := svc.GetOverview(context.Background(), "patient-1", uuid.New())
	if err != nil {
		t.Fatalf("a removed invitation should not be an error: %v", err)
	}
	if ov.Resolved {
		t.Error("removed member should yield an unresolved projection")
	}
	if ov.Vitals != nil || ov.Prescriptions != nil || ov.Reports != nil || ov.Appointments != nil {
		t.Error("unresolved projection should carry no data")
	}
}

func TestGetVitals_RemovedMemberReturnsNil(t *testing.T) {
	svc, dir, reader := newTestService()
	id := acceptedMember(dir, "patient-1", "member-1", family.DefaultPermissions(family.RoleSpouse))
	reader.vitals["member-1"] = &health.Vitals{AccountID: "member-1", HeartRate: "72"}

	delete(dir.members, id)

	v, err := svc.GetVitals(context.Background(), "patient-1", id)
	if err != nil {
		t.Fatalf("vitals after removal should not be an error: %v", err)
	}
	if v != nil {
		t.Errorf("expected nil vitals after removal, got %+v", v)
	}

	items, err := svc.GetPrescriptions(context.Background(), "patient-1", id)
	if err != nil {
		t.Fatalf("prescriptions after removal should not be an error: %v", err)
	}
	if items != nil {
		t.Errorf("expected nil prescriptions after removal, got %v", items)
	}
}

func TestGetOverview_PartialFailure(t *testing.T) {
	svc, dir, reader := newTestService()
	id := acceptedMember(dir, "patient-1", "member-1", family.DefaultPermissions(family.RoleSpouse))
	reader.vitals["member-1"] = &health.Vitals{AccountID: "member-1", HeartRate: "72"}
	reader.failing["prescriptions"] = errors.New("prescription store unavailable")

	ov, err := svc.GetOverview(context.Background(), "patient-1", id)
	if err != nil {
		t.Fatalf("overview should survive category failure: %v", err)
	}
	if ov.Vitals == nil {
		t.Error("healthy categories should still be populated")
	}
	if ov.Errors["prescriptions"] == "" {
		t.Errorf("expected prescriptions failure to be reported, got %v", ov.Errors)
	}
}

func TestGetVitals_DeniedWithoutPermission(t *testing.T) {
	svc, dir, _ := newTestService()
	id := acceptedMember(dir, "patient-1", "member-1", family.AccessPermissions{CanViewMedications: true})

	_, err := svc.GetVitals(context.Background(), "patient-1", id)
	if !errors.Is(err, family.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestGetPrescriptions_UnresolvedReturnsNil(t *testing.T) {
	svc, dir, _ := newTestService()
	id := uuid.New()
	dir.members[id] = &family.FamilyMember{
		ID:           id,
		PatientUID:   "patient-1",
		InviteStatus: family.StatusPending,
	}

	items, err := svc.GetPrescriptions(context.Background(), "patient-1", id)
	if err != nil {
		t.Fatalf("prescriptions: %v", err)
	}
	if items != nil {
		t.Errorf("expected nil for unresolved member, got %v", items)
	}
}

func TestGetReports_Allowed(t *testing.T) {
	svc, dir, reader := newTestService()
	id := acceptedMember(dir, "patient-1", "member-1", family.DefaultPermissions(family.RoleParent))
	reader.reports["member-1"] = []*health.Report{{Title: "MRI"}}

	items, err := svc.GetReports(context.Background(), "patient-1", id)
	if err != nil {
		t.Fatalf("reports: %v", err)
	}
	if len(items) != 1 || items[0].Title != "MRI" {
		t.Errorf("unexpected reports: %v", items)
	}
}
