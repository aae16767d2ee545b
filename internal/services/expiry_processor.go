package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"palestra/internal/amqp"
	"palestra/internal/core"
)

// MembershipExpirer is the store slice the expiry processor needs.
type MembershipExpirer interface {
	ExpireMemberships(ctx context.Context, today core.Date) ([]core.Membership, error)
}

// MembershipExpiryProcessor periodically marks active memberships whose end
// date has passed as expired.
type MembershipExpiryProcessor struct {
	store    MembershipExpirer
	events   EventPublisher
	interval time.Duration
	clock    Clock

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMembershipExpiryProcessor(store MembershipExpirer, events EventPublisher, interval time.Duration) *MembershipExpiryProcessor {
	return &MembershipExpiryProcessor{
		store:    store,
		events:   events,
		interval: interval,
		clock:    time.Now,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *MembershipExpiryProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("membership expiry processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Membership expiry processor started", "interval", p.interval)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *MembershipExpiryProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Membership expiry processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Membership expiry processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// IsRunning returns whether the processor is currently running
func (p *MembershipExpiryProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *MembershipExpiryProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Process immediately on startup
	p.tick(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *MembershipExpiryProcessor) tick(ctx context.Context) {
	if _, err := p.ProcessExpired(ctx, p.clock()); err != nil {
		slog.ErrorContext(ctx, "Membership expiry pass failed", "error", err)
	}
}

// ProcessExpired expires every active membership that ended before now's
// date and publishes one membership.expired event for each. A membership
// ending today is still active.
func (p *MembershipExpiryProcessor) ProcessExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := p.store.ExpireMemberships(ctx, core.DateOf(now))
	if err != nil {
		return 0, fmt.Errorf("expire memberships: %w", err)
	}
	for _, m := range expired {
		if p.events == nil {
			break
		}
		if err := p.events.PublishEvent(ctx, amqp.NewEventMessage(amqp.EventMembershipExpired, m.ID, m.MemberID)); err != nil {
			slog.WarnContext(ctx, "Failed to publish membership expiry",
				"membership_id", m.ID, "error", err)
		}
	}
	if len(expired) > 0 {
		slog.InfoContext(ctx, "Memberships expired", "count", len(expired))
	}
	return len(expired), nil
}
