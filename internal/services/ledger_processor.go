package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"palestra/internal/core"
	"palestra/internal/ledger"
	applog "palestra/internal/log"
)

// LedgerProcessorConfig holds configuration for the ledger sync processor
type LedgerProcessorConfig struct {
	// PollInterval is how often to look for unsynced payments (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of payments per poll cycle (default: 10)
	BatchSize int
}

// DefaultLedgerProcessorConfig returns sensible defaults
func DefaultLedgerProcessorConfig() LedgerProcessorConfig {
	return LedgerProcessorConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    10,
	}
}

// LedgerProcessor copies recorded payments into the external ledger and
// keeps the per-payment sync state in the store.
type LedgerProcessor struct {
	queue  LedgerQueue
	writer ledger.PaymentLedgerWriter
	config LedgerProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewLedgerProcessor(queue LedgerQueue, writer ledger.PaymentLedgerWriter, config LedgerProcessorConfig) *LedgerProcessor {
	return &LedgerProcessor{
		queue:  queue,
		writer: writer,
		config: config,
	}
}

// SyncPayment appends one payment to the ledger and records the outcome.
// Payments that no longer exist are reported as not found and not retried.
func (p *LedgerProcessor) SyncPayment(ctx context.Context, paymentID int64) error {
	payment, err := p.queue.GetPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("get payment %d: %w", paymentID, err)
	}

	ref, err := p.writer.AppendPayment(ctx, payment)
	if err != nil {
		if markErr := p.queue.MarkLedgerError(ctx, paymentID, err); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record ledger error",
				applog.FieldPaymentID, paymentID, "error", markErr)
		}
		return fmt.Errorf("append payment %d to ledger: %w", paymentID, err)
	}

	if err := p.queue.MarkLedgerSynced(ctx, paymentID, ref); err != nil {
		// The row is in the ledger; a retry finds it by payment id.
		slog.WarnContext(ctx, "Failed to mark payment as synced",
			applog.FieldPaymentID, paymentID, "error", err)
	}

	slog.InfoContext(ctx, "Synced payment to ledger",
		applog.FieldPaymentID, paymentID,
		applog.FieldAmountCents, payment.Amount.Cents,
		applog.FieldLedgerRef, ref)
	return nil
}

// ProcessPending syncs one batch of pending or failed payments and returns
// how many succeeded.
func (p *LedgerProcessor) ProcessPending(ctx context.Context) (int, error) {
	ids, err := p.queue.PendingLedgerPayments(ctx, p.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending ledger payments: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	slog.DebugContext(ctx, "Processing ledger batch", "count", len(ids))

	synced := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := p.SyncPayment(ctx, id); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				continue
			}
			slog.WarnContext(ctx, "Ledger sync failed",
				applog.FieldPaymentID, id, "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

// Start begins the processing loop. Returns an error if already running.
func (p *LedgerProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("ledger processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Ledger processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *LedgerProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Ledger processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Ledger processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// IsRunning returns whether the processor is currently running
func (p *LedgerProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *LedgerProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.processBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.processBatch(ctx)
		}
	}
}

func (p *LedgerProcessor) processBatch(ctx context.Context) {
	if _, err := p.ProcessPending(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Ledger batch failed", "error", err)
	}
}
