package storage

import (
	"context"
	"fmt"

	"palestra/internal/core"
)

const memberColumns = `id, first_name, last_name, email, phone, date_of_birth, join_date,
	emergency_contact_name, emergency_contact_phone, medical_conditions, created_at`

func scanMember(row rowScanner) (core.Member, error) {
	var m core.Member
	err := row.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.Phone, &m.DateOfBirth, &m.JoinDate,
		&m.EmergencyContactName, &m.EmergencyContactPhone, &m.MedicalConditions, timestamp{&m.CreatedAt})
	return m, err
}

func (r *SQLiteRepository) CreateMember(ctx context.Context, m core.Member) (core.Member, error) {
	row := r.db.QueryRowContext(ctx, `INSERT INTO members
		(first_name, last_name, email, phone, date_of_birth, join_date,
		 emergency_contact_name, emergency_contact_phone, medical_conditions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+memberColumns,
		m.FirstName, m.LastName, m.Email, m.Phone, m.DateOfBirth, m.JoinDate,
		m.EmergencyContactName, m.EmergencyContactPhone, m.MedicalConditions)
	created, err := scanMember(row)
	if err != nil {
		return core.Member{}, fmt.Errorf("create member: %w", translate(err))
	}
	logCreated(ctx, "Member", created.ID, "email", created.Email)
	return created, nil
}

func (r *SQLiteRepository) GetMember(ctx context.Context, id int64) (core.Member, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err != nil {
		return core.Member{}, notFound("get member", err, core.KindMember, id)
	}
	return m, nil
}

func (r *SQLiteRepository) ListMembers(ctx context.Context) ([]core.Member, error) {
	members, err := queryAll(ctx, r.db, scanMember, `SELECT `+memberColumns+` FROM members ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// UpdateMember writes every column of an already merged member.
func (r *SQLiteRepository) UpdateMember(ctx context.Context, m core.Member) (core.Member, error) {
	row := r.db.QueryRowContext(ctx, `UPDATE members SET
		first_name = ?, last_name = ?, email = ?, phone = ?, date_of_birth = ?,
		emergency_contact_name = ?, emergency_contact_phone = ?, medical_conditions = ?
		WHERE id = ?
		RETURNING `+memberColumns,
		m.FirstName, m.LastName, m.Email, m.Phone, m.DateOfBirth,
		m.EmergencyContactName, m.EmergencyContactPhone, m.MedicalConditions, m.ID)
	updated, err := scanMember(row)
	if err != nil {
		return core.Member{}, notFound("update member", translate(err), core.KindMember, m.ID)
	}
	return updated, nil
}

const progressColumns = `id, member_id, weight, body_fat_percentage, muscle_mass, notes, recorded_date, created_at`

func scanProgress(row rowScanner) (core.MemberProgress, error) {
	var p core.MemberProgress
	err := row.Scan(&p.ID, &p.MemberID, &p.Weight, &p.BodyFatPercentage, &p.MuscleMass, &p.Notes,
		&p.RecordedDate, timestamp{&p.CreatedAt})
	return p, err
}

func (r *SQLiteRepository) CreateMemberProgress(ctx context.Context, p core.MemberProgress) (core.MemberProgress, error) {
	row := r.db.QueryRowContext(ctx, `INSERT INTO member_progress
		(member_id, weight, body_fat_percentage, muscle_mass, notes, recorded_date)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+progressColumns,
		p.MemberID, p.Weight, p.BodyFatPercentage, p.MuscleMass, p.Notes, p.RecordedDate)
	created, err := scanProgress(row)
	if err != nil {
		return core.MemberProgress{}, fmt.Errorf("create member progress: %w", translate(err))
	}
	logCreated(ctx, "Member progress", created.ID, "member_id", created.MemberID)
	return created, nil
}

// ListMemberProgress returns a member's records, newest first.
func (r *SQLiteRepository) ListMemberProgress(ctx context.Context, memberID int64) ([]core.MemberProgress, error) {
	records, err := queryAll(ctx, r.db, scanProgress, `SELECT `+progressColumns+`
		FROM member_progress WHERE member_id = ?
		ORDER BY recorded_date DESC, id DESC`, memberID)
	if err != nil {
		return nil, fmt.Errorf("list member progress: %w", err)
	}
	return records, nil
}
