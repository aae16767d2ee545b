package storage

import (
	"context"
	"fmt"

	"palestra/internal/core"
)

const membershipTypeColumns = `id, name, description, duration_months, price_cents, is_active, created_at`

func scanMembershipType(row rowScanner) (core.MembershipType, error) {
	var mt core.MembershipType
	err := row.Scan(&mt.ID, &mt.Name, &mt.Description, &mt.DurationMonths, &mt.Price, &mt.IsActive,
		timestamp{&mt.CreatedAt})
	return mt, err
}

func (r *SQLiteRepository) CreateMembershipType(ctx context.Context, mt core.MembershipType) (core.MembershipType, error) {
	row := r.db.QueryRowContext(ctx, `INSERT INTO membership_types
		(name, description, duration_months, price_cents, is_active)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+membershipTypeColumns,
		mt.Name, mt.Description, mt.DurationMonths, mt.Price, mt.IsActive)
	created, err := scanMembershipType(row)
	if err != nil {
		return core.MembershipType{}, fmt.Errorf("create membership type: %w", translate(err))
	}
	logCreated(ctx, "Membership type", created.ID, "name", created.Name, "price_cents", created.Price.Cents)
	return created, nil
}

func (r *SQLiteRepository) GetMembershipType(ctx context.Context, id int64) (core.MembershipType, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+membershipTypeColumns+` FROM membership_types WHERE id = ?`, id)
	mt, err := scanMembershipType(row)
	if err != nil {
		return core.MembershipType{}, notFound("get membership type", err, core.KindMembershipType, id)
	}
	return mt, nil
}

func (r *SQLiteRepository) ListMembershipTypes(ctx context.Context) ([]core.MembershipType, error) {
	types, err := queryAll(ctx, r.db, scanMembershipType, `SELECT `+membershipTypeColumns+` FROM membership_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list membership types: %w", err)
	}
	return types, nil
}

func (r *SQLiteRepository) UpdateMembershipType(ctx context.Context, mt core.MembershipType) (core.MembershipType, error) {
	row := r.db.QueryRowContext(ctx, `UPDATE membership_types SET
		name = ?, description = ?, duration_months = ?, price_cents = ?, is_active = ?
		WHERE id = ?
		RETURNING `+membershipTypeColumns,
		mt.Name, mt.Description, mt.DurationMonths, mt.Price, mt.IsActive, mt.ID)
	updated, err := scanMembershipType(row)
	if err != nil {
		return core.MembershipType{}, notFound("update membership type", translate(err), core.KindMembershipType, mt.ID)
	}
	return updated, nil
}

const membershipColumns = `id, member_id, membership_type_id, start_date, end_date, status, created_at`

func scanMembership(row rowScanner) (core.Membership, error) {
	var m core.Membership
	err := row.Scan(&m.ID, &m.MemberID, &m.MembershipTypeID, &m.StartDate, &m.EndDate, &m.Status,
		timestamp{&m.CreatedAt})
	return m, err
}

func (r *SQLiteRepository) CreateMembership(ctx context.Context, m core.Membership) (core.Membership, error) {
	row := r.db.QueryRowContext(ctx, `INSERT INTO memberships
		(member_id, membership_type_id, start_date, end_date, status)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+membershipColumns,
		m.MemberID, m.MembershipTypeID, m.StartDate, m.EndDate, m.Status)
	created, err := scanMembership(row)
	if err != nil {
		return core.Membership{}, fmt.Errorf("create membership: %w", translate(err))
	}
	logCreated(ctx, "Membership", created.ID,
		"member_id", created.MemberID,
		"start_date", created.StartDate.String(),
		"end_date", created.EndDate.String())
	return created, nil
}

func (r *SQLiteRepository) GetMembership(ctx context.Context, id int64) (core.Membership, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE id = ?`, id)
	m, err := scanMembership(row)
	if err != nil {
		return core.Membership{}, notFound("get membership", err, core.KindMembership, id)
	}
	return m, nil
}

func (r *SQLiteRepository) ListMemberships(ctx context.Context) ([]core.Membership, error) {
	memberships, err := queryAll(ctx, r.db, scanMembership, `SELECT `+membershipColumns+` FROM memberships ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return memberships, nil
}

// ExpireMemberships marks active memberships that ended before today as
// expired and returns them.
func (r *SQLiteRepository) ExpireMemberships(ctx context.Context, today core.Date) ([]core.Membership, error) {
	expired, err := queryAll(ctx, r.db, scanMembership, `UPDATE memberships
		SET status = 'expired'
		WHERE status = 'active' AND end_date < ?
		RETURNING `+membershipColumns, today)
	if err != nil {
		return nil, fmt.Errorf("expire memberships: %w", err)
	}
	return expired, nil
}
