package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// MaxLedgerAttempts bounds how often a failing payment is retried.
const MaxLedgerAttempts = 10

// PendingLedgerPayments returns ids of payments not yet written to the
// external ledger, oldest first. Rows in error are retried until they reach
// MaxLedgerAttempts.
func (r *SQLiteRepository) PendingLedgerPayments(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payment_id FROM payment_ledger_sync
		WHERE sync_status = 'pending' OR (sync_status = 'error' AND attempts < ?)
		ORDER BY payment_id
		LIMIT ?`, MaxLedgerAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending ledger payments: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending ledger payment: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkLedgerSynced records a successful ledger append.
func (r *SQLiteRepository) MarkLedgerSynced(ctx context.Context, paymentID int64, rowRef string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE payment_ledger_sync
		SET sync_status = 'synced', row_ref = ?, last_error = NULL, attempts = attempts + 1,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE payment_id = ?`, rowRef, paymentID)
	if err != nil {
		return fmt.Errorf("mark payment ledger synced: %w", err)
	}

	slog.InfoContext(ctx, "Payment marked as synced to ledger", "payment_id", paymentID, "row_ref", rowRef)
	return nil
}

// MarkLedgerError records a failed ledger append so it is retried later.
func (r *SQLiteRepository) MarkLedgerError(ctx context.Context, paymentID int64, cause error) error {
	_, err := r.db.ExecContext(ctx, `UPDATE payment_ledger_sync
		SET sync_status = 'error', last_error = ?, attempts = attempts + 1,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE payment_id = ?`, cause.Error(), paymentID)
	if err != nil {
		return fmt.Errorf("mark payment ledger error: %w", err)
	}

	slog.WarnContext(ctx, "Payment marked with ledger sync error", "payment_id", paymentID, "error", cause)
	return nil
}

// LedgerSyncStatus returns the sync state of a payment.
func (r *SQLiteRepository) LedgerSyncStatus(ctx context.Context, paymentID int64) (status string, attempts int, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT sync_status, attempts FROM payment_ledger_sync WHERE payment_id = ?`,
		paymentID).Scan(&status, &attempts)
	if err != nil {
		return "", 0, fmt.Errorf("get ledger sync status: %w", err)
	}
	return status, attempts, nil
}
