package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"palestra/internal/amqp"
	"palestra/internal/core"
	applog "palestra/internal/log"
)

// PaymentSyncer copies payments into the external ledger.
// *services.LedgerProcessor implements it.
type PaymentSyncer interface {
	SyncPayment(ctx context.Context, paymentID int64) error
	ProcessPending(ctx context.Context) (int, error)
}

// ReportPurger drops cached revenue reports. A shared Redis cache must be
// purged by the consumer too, since other API instances wrote into it.
type ReportPurger interface {
	Purge(ctx context.Context)
}

// EventWorker consumes domain events published by the API.
type EventWorker struct {
	ledger  PaymentSyncer
	reports ReportPurger
}

func NewEventWorker(ledger PaymentSyncer, reports ReportPurger) *EventWorker {
	return &EventWorker{
		ledger:  ledger,
		reports: reports,
	}
}

// HandleEvent processes a single event from AMQP. A returned error causes the
// message to be requeued.
func (w *EventWorker) HandleEvent(ctx context.Context, msg *amqp.EventMessage) error {
	switch msg.Type {
	case amqp.EventPaymentRecorded:
		return w.handlePaymentRecorded(ctx, msg)
	case amqp.EventMemberCreated,
		amqp.EventMembershipCreated,
		amqp.EventMembershipExpired,
		amqp.EventClassCreated,
		amqp.EventAttendanceRecorded:
		slog.InfoContext(ctx, "Event received",
			applog.FieldEventType, msg.Type,
			"entity_id", msg.EntityID,
			applog.FieldMemberID, msg.MemberID)
		return nil
	default:
		// Unknown types are acknowledged so they do not loop forever.
		slog.WarnContext(ctx, "Ignoring unknown event type",
			applog.FieldEventType, msg.Type,
			"event_id", msg.ID)
		return nil
	}
}

func (w *EventWorker) handlePaymentRecorded(ctx context.Context, msg *amqp.EventMessage) error {
	if w.reports != nil {
		w.reports.Purge(ctx)
	}
	if w.ledger == nil {
		return nil
	}

	err := w.ledger.SyncPayment(ctx, msg.EntityID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Payment from event no longer exists",
			applog.FieldPaymentID, msg.EntityID,
			"event_id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("sync payment %d: %w", msg.EntityID, err)
	}
	return nil
}

// StartupSyncCheck syncs payments left pending while the worker was down.
func (w *EventWorker) StartupSyncCheck(ctx context.Context) error {
	if w.ledger == nil {
		return nil
	}
	n, err := w.ledger.ProcessPending(ctx)
	if err != nil {
		return fmt.Errorf("startup ledger sync: %w", err)
	}
	if n == 0 {
		slog.InfoContext(ctx, "No pending payments found on startup")
		return nil
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", n)
	return nil
}
