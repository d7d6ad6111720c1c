package family

import (
	"context"
	"errors"
	"time"

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

const memberCols = `id, patient_uid, name, email, role, custom_role,
	invite_status, invite_token, permissions, family_member_uid,
	invited_at, responded_at, created_at, updated_at`

func scanMember(row pgx.Row) (*FamilyMember, error) {
	var m FamilyMember
	err := row.Scan(&m.ID, &m.PatientUID, &m.Name, &m.Email, &m.Role, &m.CustomRole,
		&m.InviteStatus, &m.InviteToken, &m.Permissions, &m.FamilyMemberUID,
		&m.InvitedAt, &m.RespondedAt, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

const relCols = `id, patient_uid, family_member_uid, role, custom_role,
	permissions, is_active, created_at, updated_at`

func scanRelationship(row pgx.Row) (*FamilyRelationship, error) {
	var rel FamilyRelationship
	err := row.Scan(&rel.ID, &rel.PatientUID, &rel.FamilyMemberUID, &rel.Role,
		&rel.CustomRole, &rel.Permissions, &rel.IsActive, &rel.CreatedAt, &rel.UpdatedAt)
	return &rel, err
}

func (r *repoPG) CreateMember(ctx context.Context, m *FamilyMember) error {
	m.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO family_member (id, patient_uid, name, email, role, custom_role,
			invite_status, invite_token, permissions)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING invited_at, created_at, updated_at`,
		m.ID, m.PatientUID, m.Name, m.Email, m.Role, m.CustomRole,
		m.InviteStatus, m.InviteToken, m.Permissions).
		Scan(&m.InvitedAt, &m.CreatedAt, &m.UpdatedAt)
}

func (r *repoPG) GetMemberByID(ctx context.Context, id uuid.UUID) (*FamilyMember, error) {
	m, err := scanMember(r.conn(ctx).QueryRow(ctx,
		`SELECT `+memberCols+` FROM family_member WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	return m, err
}

func (r *repoPG) HasLiveInvite(ctx context.Context, patientUID, email string) (bool, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM family_member
		WHERE patient_uid = $1 AND email = $2 AND invite_status IN ('pending', 'accepted')`,
		patientUID, email).Scan(&count)
	return count > 0, err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientUID string, limit, offset int) ([]*FamilyMember, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM family_member WHERE patient_uid = $1`, patientUID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+memberCols+` FROM family_member
		WHERE patient_uid = $1 ORDER BY invited_at DESC LIMIT $2 OFFSET $3`,
		patientUID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*FamilyMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListPendingByEmail(ctx context.Context, email string, cutoff time.Time) ([]*FamilyMember, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+memberCols+` FROM family_member
		WHERE email = $1 AND invite_status = 'pending' AND invited_at > $2
		ORDER BY invited_at DESC`,
		email, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*FamilyMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// Accept claims the invitation with a conditional update so a token can only
// ever be consumed once, regardless of concurrent attempts. The relationship
// swap runs in the same transaction.
func (r *repoPG) Accept(ctx context.Context, token, familyMemberUID string, cutoff time.Time) (*FamilyMember, *FamilyRelationship, error) {
	txCtx, done, err := db.WithTx(ctx, r.pool)
	if err != nil {
		return nil, nil, err
	}

	m, rel, err := r.acceptInTx(txCtx, token, familyMemberUID, cutoff)
	if err := done(err); err != nil {
		return nil, nil, err
	}
	return m, rel, nil
}

func (r *repoPG) acceptInTx(ctx context.Context, token, familyMemberUID string, cutoff time.Time) (*FamilyMember, *FamilyRelationship, error) {
	m, err := scanMember(r.conn(ctx).QueryRow(ctx, `
		UPDATE family_member
		SET invite_status = 'accepted', family_member_uid = $2,
			responded_at = NOW(), updated_at = NOW()
		WHERE invite_token = $1 AND invite_status = 'pending'
			AND invited_at > $3 AND patient_uid <> $2
		RETURNING `+memberCols,
		token, familyMemberUID, cutoff))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	// Retire any leftover grant from a previous invite cycle between the
	// same pair before creating the new one.
	if _, err := r.conn(ctx).Exec(ctx, `
		UPDATE family_relationship SET is_active = FALSE, updated_at = NOW()
		WHERE patient_uid = $1 AND family_member_uid = $2 AND is_active`,
		m.PatientUID, familyMemberUID); err != nil {
		return nil, nil, err
	}

	rel := &FamilyRelationship{
		ID:              uuid.New(),
		PatientUID:      m.PatientUID,
		FamilyMemberUID: familyMemberUID,
		Role:            m.Role,
		CustomRole:      m.CustomRole,
		Permissions:     m.Permissions,
		IsActive:        true,
	}
	if err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO family_relationship (id, patient_uid, family_member_uid, role,
			custom_role, permissions, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,TRUE)
		RETURNING created_at, updated_at`,
		rel.ID, rel.PatientUID, rel.FamilyMemberUID, rel.Role,
		rel.CustomRole, rel.Permissions).
		Scan(&rel.CreatedAt, &rel.UpdatedAt); err != nil {
		return nil, nil, err
	}
	return m, rel, nil
}

func (r *repoPG) Reject(ctx context.Context, token string, cutoff time.Time) (*FamilyMember, error) {
	m, err := scanMember(r.conn(ctx).QueryRow(ctx, `
		UPDATE family_member
		SET invite_status = 'rejected', responded_at = NOW(), updated_at = NOW()
		WHERE invite_token = $1 AND invite_status = 'pending' AND invited_at > $2
		RETURNING `+memberCols,
		token, cutoff))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInviteNotFound
	}
	return m, err
}

func (r *repoPG) Remove(ctx context.Context, m *FamilyMember) error {
	txCtx, done, err := db.WithTx(ctx, r.pool)
	if err != nil {
		return err
	}
	return done(r.removeInTx(txCtx, m))
}

func (r *repoPG) removeInTx(ctx context.Context, m *FamilyMember) error {
	if _, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM family_member WHERE id = $1`, m.ID); err != nil {
		return err
	}
	if m.FamilyMemberUID == nil {
		return nil
	}
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE family_relationship SET is_active = FALSE, updated_at = NOW()
		WHERE patient_uid = $1 AND family_member_uid = $2 AND is_active`,
		m.PatientUID, *m.FamilyMemberUID)
	return err
}

func (r *repoPG) ExpireStale(ctx context.Context, cutoff time.Time) ([]*FamilyMember, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		UPDATE family_member
		SET invite_status = 'expired', updated_at = NOW()
		WHERE invite_status = 'pending' AND invited_at <= $1
		RETURNING `+memberCols,
		cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*FamilyMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *repoPG) ActiveRelationshipsByMember(ctx context.Context, familyMemberUID string) ([]*FamilyRelationship, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+relCols+` FROM family_relationship
		WHERE family_member_uid = $1 AND is_active
		ORDER BY created_at DESC`,
		familyMemberUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*FamilyRelationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rel)
	}
	return items, rows.Err()
}

func (r *repoPG) ActiveRelationship(ctx context.Context, patientUID, familyMemberUID string) (*FamilyRelationship, error) {
	rel, err := scanRelationship(r.conn(ctx).QueryRow(ctx, `
		SELECT `+relCols+` FROM family_relationship
		WHERE patient_uid = $1 AND family_member_uid = $2 AND is_active`,
		patientUID, familyMemberUID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rel, err
}

func (r *repoPG) UpdateRelationshipPermissions(ctx context.Context, id uuid.UUID, perms AccessPermissions) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE family_relationship SET permissions = $2, updated_at = NOW()
		WHERE id = $1 AND is_active`,
		id, perms)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}
