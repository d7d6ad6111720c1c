package emergency

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthmate/healthmate/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const alertCols = `id, patient_uid, patient_name, message, latitude, longitude,
	status, created_at, resolved_at`

func scanAlert(row pgx.Row) (*Alert, error) {
	var a Alert
	err := row.Scan(&a.ID, &a.PatientUID, &a.PatientName, &a.Message,
		&a.Latitude, &a.Longitude, &a.Status, &a.CreatedAt, &a.ResolvedAt)
	return &a, err
}

func (r *repoPG) CreateAlert(ctx context.Context, a *Alert) error {
	a.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO emergency_alert (id, patient_uid, patient_name, message,
			latitude, longitude, status)
		VALUES ($1,$2,$3,$4,$5,$6,'active')
		RETURNING created_at`,
		a.ID, a.PatientUID, a.PatientName, a.Message, a.Latitude, a.Longitude).
		Scan(&a.CreatedAt)
}

func (r *repoPG) GetAlertByID(ctx context.Context, id uuid.UUID) (*Alert, error) {
	a, err := scanAlert(r.conn(ctx).QueryRow(ctx,
		`SELECT `+alertCols+` FROM emergency_alert WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *repoPG) ResolveAlert(ctx context.Context, id uuid.UUID) (*Alert, error) {
	a, err := scanAlert(r.conn(ctx).QueryRow(ctx, `
		UPDATE emergency_alert
		SET status = 'resolved', resolved_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING `+alertCols, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *repoPG) ListAlertsByPatient(ctx context.Context, patientUID string, limit int) ([]*Alert, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+alertCols+` FROM emergency_alert
		WHERE patient_uid = $1 ORDER BY created_at DESC LIMIT $2`,
		patientUID, limit)
	if err != nil {
		return nil, err
	}
	return collectAlerts(rows)
}

func (r *repoPG) ListAlertsByPatients(ctx context.Context, patientUIDs []string, limit int) ([]*Alert, error) {
	if len(patientUIDs) == 0 {
		return nil, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+alertCols+` FROM emergency_alert
		WHERE patient_uid = ANY($1) ORDER BY created_at DESC LIMIT $2`,
		patientUIDs, limit)
	if err != nil {
		return nil, err
	}
	return collectAlerts(rows)
}

func collectAlerts(rows pgx.Rows) ([]*Alert, error) {
	defer rows.Close()
	var items []*Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) CreateContact(ctx context.Context, c *Contact) error {
	c.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO emergency_contact (id, account_id, name, phone, relationship)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		c.ID, c.AccountID, c.Name, c.Phone, c.Relationship).
		Scan(&c.CreatedAt)
}

func (r *repoPG) ListContacts(ctx context.Context, accountID string) ([]*Contact, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, account_id, name, phone, relationship, created_at
		FROM emergency_contact WHERE account_id = $1 ORDER BY created_at`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.Phone,
			&c.Relationship, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	return items, rows.Err()
}

func (r *repoPG) DeleteContact(ctx context.Context, accountID string, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM emergency_contact WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
