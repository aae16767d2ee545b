package storage

import (
	"context"
	"fmt"

	"palestra/internal/core"
)

const trainerColumns = `id, first_name, last_name, email, phone, specialization,
	hourly_rate_cents, hire_date, is_active, created_at`

func scanTrainer(row rowScanner) (core.Trainer, error) {
	var t core.Trainer
	err := row.Scan(&t.ID, &t.FirstName, &t.LastName, &t.Email, &t.Phone, &t.Specialization,
		&t.HourlyRate, &t.HireDate, &t.IsActive, timestamp{&t.CreatedAt})
	return t, err
}

func (r *SQLiteRepository) CreateTrainer(ctx context.Context, t core.Trainer) (core.Trainer, error) {
	row := r.db.QueryRowContext(ctx, `INSERT INTO trainers
		(first_name, last_name, email, phone, specialization, hourly_rate_cents, hire_date, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+trainerColumns,
		t.FirstName, t.LastName, t.Email, t.Phone, t.Specialization, t.HourlyRate, t.HireDate, t.IsActive)
	created, err := scanTrainer(row)
	if err != nil {
		return core.Trainer{}, fmt.Errorf("create trainer: %w", translate(err))
	}
	logCreated(ctx, "Trainer", created.ID, "email", created.Email)
	return created, nil
}

func (r *SQLiteRepository) GetTrainer(ctx context.Context, id int64) (core.Trainer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+trainerColumns+` FROM trainers WHERE id = ?`, id)
	t, err := scanTrainer(row)
	if err != nil {
		return core.Trainer{}, notFound("get trainer", err, core.KindTrainer, id)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTrainers(ctx context.Context) ([]core.Trainer, error) {
	trainers, err := queryAll(ctx, r.db, scanTrainer, `SELECT `+trainerColumns+` FROM trainers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list trainers: %w", err)
	}
	return trainers, nil
}

func (r *SQLiteRepository) UpdateTrainer(ctx context.Context, t core.Trainer) (core.Trainer, error) {
	row := r.db.QueryRowContext(ctx, `UPDATE trainers SET
		first_name = ?, last_name = ?, email = ?, phone = ?, specialization = ?,
		hourly_rate_cents = ?, is_active = ?
		WHERE id = ?
		RETURNING `+trainerColumns,
		t.FirstName, t.LastName, t.Email, t.Phone, t.Specialization, t.HourlyRate, t.IsActive, t.ID)
	updated, err := scanTrainer(row)
	if err != nil {
		return core.Trainer{}, notFound("update trainer", translate(err), core.KindTrainer, t.ID)
	}
	return updated, nil
}
