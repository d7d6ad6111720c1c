package health

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

func (r *repoPG) UpsertVitals(ctx context.Context, v *Vitals) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO vitals (account_id, heart_rate, oxygen_saturation, steps, last_updated)
		VALUES ($1,$2,$3,$4,NOW())
		ON CONFLICT (account_id) DO UPDATE
		SET heart_rate = EXCLUDED.heart_rate,
			oxygen_saturation = EXCLUDED.oxygen_saturation,
			steps = EXCLUDED.steps,
			last_updated = NOW()
		RETURNING last_updated`,
		v.AccountID, v.HeartRate, v.OxygenSaturation, v.Steps).
		Scan(&v.LastUpdated)
}

func (r *repoPG) GetVitals(ctx context.Context, accountID string) (*Vitals, error) {
	var v Vitals
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT account_id, heart_rate, oxygen_saturation, steps, last_updated
		FROM vitals WHERE account_id = $1`, accountID).
		Scan(&v.AccountID, &v.HeartRate, &v.OxygenSaturation, &v.Steps, &v.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

const rxCols = `id, account_id, medications, raw_text, extracted_at,
	image_url, health_suggestions, saved_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.AccountID, &p.Medications, &p.RawText, &p.ExtractedAt,
		&p.ImageURL, &p.HealthSuggestions, &p.SavedAt)
	return &p, err
}

func (r *repoPG) CreatePrescription(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescription (id, account_id, medications, raw_text, extracted_at,
			image_url, health_suggestions)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING saved_at`,
		p.ID, p.AccountID, p.Medications, p.RawText, p.ExtractedAt,
		p.ImageURL, p.HealthSuggestions).
		Scan(&p.SavedAt)
}

func (r *repoPG) ListPrescriptions(ctx context.Context, accountID string, limit int) ([]*Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+rxCols+` FROM prescription
		WHERE account_id = $1 ORDER BY saved_at DESC LIMIT $2`,
		accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repoPG) DeletePrescription(ctx context.Context, accountID string, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM prescription WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const reportCols = `id, account_id, title, type, content, status, urgent, report_date, created_at`

func (r *repoPG) CreateReport(ctx context.Context, rep *Report) error {
	rep.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO report (id, account_id, title, type, content, status, urgent, report_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		rep.ID, rep.AccountID, rep.Title, rep.Type, rep.Content, rep.Status,
		rep.Urgent, rep.ReportDate).
		Scan(&rep.CreatedAt)
}

func (r *repoPG) ListReports(ctx context.Context, accountID string, limit int) ([]*Report, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+reportCols+` FROM report
		WHERE account_id = $1 ORDER BY report_date DESC LIMIT $2`,
		accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Report
	for rows.Next() {
		var rep Report
		if err := rows.Scan(&rep.ID, &rep.AccountID, &rep.Title, &rep.Type, &rep.Content,
			&rep.Status, &rep.Urgent, &rep.ReportDate, &rep.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &rep)
	}
	return items, rows.Err()
}

const apptCols = `id, account_id, title, provider, location, notes,
	scheduled_at, status, created_at, updated_at`

func (r *repoPG) CreateAppointment(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, account_id, title, provider, location, notes,
			scheduled_at, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		a.ID, a.AccountID, a.Title, a.Provider, a.Location, a.Notes,
		a.ScheduledAt, a.Status).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *repoPG) ListAppointments(ctx context.Context, accountID string, limit int) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE account_id = $1 ORDER BY scheduled_at DESC LIMIT $2`,
		accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.AccountID, &a.Title, &a.Provider, &a.Location,
			&a.Notes, &a.ScheduledAt, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}

func (r *repoPG) UpdateAppointmentStatus(ctx context.Context, accountID string, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET status = $3, updated_at = NOW()
		WHERE id = $1 AND account_id = $2`,
		id, accountID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
