package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"palestra/internal/core"
)

const classColumns = `id, name, description, trainer_id, max_capacity, duration_minutes,
	class_date, start_time, is_cancelled, created_at`

func scanClass(row rowScanner) (core.Class, error) {
	var c core.Class
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.TrainerID, &c.MaxCapacity, &c.DurationMinutes,
		&c.ClassDate, &c.StartTime, &c.IsCancelled, timestamp{&c.CreatedAt})
	return c, err
}

func (r *SQLiteRepository) CreateClass(ctx context.Context, c core.Class) (core.Class, error) {
	row := r.db.QueryRowContext(ctx, `INSERT INTO classes
		(name, description, trainer_id, max_capacity, duration_minutes, class_date, start_time, is_cancelled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+classColumns,
		c.Name, c.Description, c.TrainerID, c.MaxCapacity, c.DurationMinutes, c.ClassDate, c.StartTime, c.IsCancelled)
	created, err := scanClass(row)
	if err != nil {
		return core.Class{}, fmt.Errorf("create class: %w", translate(err))
	}
	logCreated(ctx, "Class", created.ID, "trainer_id", created.TrainerID, "class_date", created.ClassDate.String())
	return created, nil
}

func (r *SQLiteRepository) GetClass(ctx context.Context, id int64) (core.Class, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+classColumns+` FROM classes WHERE id = ?`, id)
	c, err := scanClass(row)
	if err != nil {
		return core.Class{}, notFound("get class", err, core.KindClass, id)
	}
	return c, nil
}

// ListClasses returns the schedule in chronological order.
func (r *SQLiteRepository) ListClasses(ctx context.Context) ([]core.Class, error) {
	classes, err := queryAll(ctx, r.db, scanClass, `SELECT `+classColumns+`
		FROM classes ORDER BY class_date, start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

func (r *SQLiteRepository) UpdateClass(ctx context.Context, c core.Class) (core.Class, error) {
	row := r.db.QueryRowContext(ctx, `UPDATE classes SET
		name = ?, description = ?, trainer_id = ?, max_capacity = ?, duration_minutes = ?,
		class_date = ?, start_time = ?, is_cancelled = ?
		WHERE id = ?
		RETURNING `+classColumns,
		c.Name, c.Description, c.TrainerID, c.MaxCapacity, c.DurationMinutes,
		c.ClassDate, c.StartTime, c.IsCancelled, c.ID)
	updated, err := scanClass(row)
	if err != nil {
		return core.Class{}, notFound("update class", translate(err), core.KindClass, c.ID)
	}
	return updated, nil
}

const attendanceColumns = `id, class_id, member_id, attended, check_in_time, created_at`

func scanAttendance(row rowScanner) (core.ClassAttendance, error) {
	var a core.ClassAttendance
	err := row.Scan(&a.ID, &a.ClassID, &a.MemberID, &a.Attended, nullTimestamp{&a.CheckInTime},
		timestamp{&a.CreatedAt})
	return a, err
}

// CreateClassAttendance inserts an attendance record. The UNIQUE(class_id,
// member_id) constraint is the final word on duplicates.
func (r *SQLiteRepository) CreateClassAttendance(ctx context.Context, a core.ClassAttendance) (core.ClassAttendance, error) {
	row := r.db.QueryRowContext(ctx, `INSERT INTO class_attendance
		(class_id, member_id, attended, check_in_time)
		VALUES (?, ?, ?, ?)
		RETURNING `+attendanceColumns,
		a.ClassID, a.MemberID, a.Attended, formatTimestamp(a.CheckInTime))
	created, err := scanAttendance(row)
	if err != nil {
		if isUniqueViolation(err) && strings.Contains(err.Error(), "class_attendance") {
			return core.ClassAttendance{}, core.NewAttendanceConflict(a.ClassID, a.MemberID)
		}
		return core.ClassAttendance{}, fmt.Errorf("create class attendance: %w", translate(err))
	}
	logCreated(ctx, "Class attendance", created.ID, "class_id", created.ClassID, "member_id", created.MemberID)
	return created, nil
}

func (r *SQLiteRepository) GetClassAttendance(ctx context.Context, id int64) (core.ClassAttendance, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+attendanceColumns+` FROM class_attendance WHERE id = ?`, id)
	a, err := scanAttendance(row)
	if err != nil {
		return core.ClassAttendance{}, notFound("get class attendance", err, core.KindAttendance, id)
	}
	return a, nil
}

func (r *SQLiteRepository) ListClassAttendance(ctx context.Context, classID int64) ([]core.ClassAttendance, error) {
	records, err := queryAll(ctx, r.db, scanAttendance, `SELECT `+attendanceColumns+`
		FROM class_attendance WHERE class_id = ? ORDER BY id`, classID)
	if err != nil {
		return nil, fmt.Errorf("list class attendance: %w", err)
	}
	return records, nil
}

// AttendanceExists reports whether the member already has a record for the
// class.
func (r *SQLiteRepository) AttendanceExists(ctx context.Context, classID, memberID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM class_attendance WHERE class_id = ? AND member_id = ?`, classID, memberID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check attendance: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) UpdateClassAttendance(ctx context.Context, a core.ClassAttendance) (core.ClassAttendance, error) {
	row := r.db.QueryRowContext(ctx, `UPDATE class_attendance SET attended = ?, check_in_time = ?
		WHERE id = ?
		RETURNING `+attendanceColumns,
		a.Attended, formatTimestamp(a.CheckInTime), a.ID)
	updated, err := scanAttendance(row)
	if err != nil {
		return core.ClassAttendance{}, notFound("update class attendance", translate(err), core.KindAttendance, a.ID)
	}
	return updated, nil
}
