package storage

import (
	"context"
	"fmt"

	"palestra/internal/core"
)

const paymentColumns = `id, member_id, membership_id, amount_cents, payment_method, payment_date,
	description, status, created_at`

func scanPayment(row rowScanner) (core.Payment, error) {
	var p core.Payment
	err := row.Scan(&p.ID, &p.MemberID, &p.MembershipID, &p.Amount, &p.PaymentMethod, &p.PaymentDate,
		&p.Description, &p.Status, timestamp{&p.CreatedAt})
	return p, err
}

// CreatePayment inserts a payment. A trigger queues it for the ledger.
func (r *SQLiteRepository) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	row := r.db.QueryRowContext(ctx, `INSERT INTO payments
		(member_id, membership_id, amount_cents, payment_method, payment_date, description, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING `+paymentColumns,
		p.MemberID, p.MembershipID, p.Amount, p.PaymentMethod, p.PaymentDate, p.Description, p.Status)
	created, err := scanPayment(row)
	if err != nil {
		return core.Payment{}, fmt.Errorf("create payment: %w", translate(err))
	}
	logCreated(ctx, "Payment", created.ID,
		"member_id", created.MemberID,
		"amount_cents", created.Amount.Cents,
		"method", created.PaymentMethod)
	return created, nil
}

func (r *SQLiteRepository) GetPayment(ctx context.Context, id int64) (core.Payment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if err != nil {
		return core.Payment{}, notFound("get payment", err, core.KindPayment, id)
	}
	return p, nil
}

// ListPayments returns all payments, most recent first.
func (r *SQLiteRepository) ListPayments(ctx context.Context) ([]core.Payment, error) {
	payments, err := queryAll(ctx, r.db, scanPayment, `SELECT `+paymentColumns+`
		FROM payments ORDER BY payment_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// ListCompletedPaymentsBetween returns completed payments dated in the
// closed range [start, end].
func (r *SQLiteRepository) ListCompletedPaymentsBetween(ctx context.Context, start, end core.Date) ([]core.Payment, error) {
	payments, err := queryAll(ctx, r.db, scanPayment, `SELECT `+paymentColumns+`
		FROM payments
		WHERE status = 'completed' AND payment_date >= ? AND payment_date <= ?
		ORDER BY payment_date, id`, start, end)
	if err != nil {
		return nil, fmt.Errorf("list completed payments: %w", err)
	}
	return payments, nil
}
