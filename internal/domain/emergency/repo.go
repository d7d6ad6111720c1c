package emergency

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an alert or contact does not exist.
var ErrNotFound = errors.New("record not found")

// Repository is the storage contract for alerts and emergency contacts.
type Repository interface {
	CreateAlert(ctx context.Context, a *Alert) error
	GetAlertByID(ctx context.Context, id uuid.UUID) (*Alert, error)
	// ResolveAlert flips an active alert to resolved. Returns ErrNotFound when
	// the alert does not exist or is already resolved.
	ResolveAlert(ctx context.Context, id uuid.UUID) (*Alert, error)
	ListAlertsByPatient(ctx context.Context, patientUID string, limit int) ([]*Alert, error)
	// ListAlertsByPatients returns recent alerts across the given patients,
	// newest first.
	ListAlertsByPatients(ctx context.Context, patientUIDs []string, limit int) ([]*Alert, error)

	CreateContact(ctx context.Context, c *Contact) error
	ListContacts(ctx context.Context, accountID string) ([]*Contact, error)
	DeleteContact(ctx context.Context, accountID string, id uuid.UUID) error
}
