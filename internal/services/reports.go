package services

import (
	"context"
	"fmt"
	"time"

	"palestra/internal/core"
	applog "palestra/internal/log"
)

const reportQueryTimeout = 30 * time.Second

// GenerateRevenueReport aggregates completed payments dated within the
// inclusive period. Reports are cached per period; concurrent requests for
// the same uncached period share one store query.
func (s *GymService) GenerateRevenueReport(ctx context.Context, in core.RevenueReportInput) (core.RevenueReport, error) {
	if err := in.PeriodStart.Validate(); err != nil {
		return core.RevenueReport{}, fmt.Errorf("period_start: %w", err)
	}
	if err := in.PeriodEnd.Validate(); err != nil {
		return core.RevenueReport{}, fmt.Errorf("period_end: %w", err)
	}

	key := in.PeriodStart.String() + ":" + in.PeriodEnd.String()
	if s.reports != nil {
		if r, ok := s.reports.Get(ctx, key); ok {
			return r, nil
		}
	}

	// A payment bumps the generation. A query that started before it may
	// have missed the payment, so its result is returned but never cached,
	// and later callers join a new flight.
	gen := s.reportGen.Load()
	v, err, shared := s.group.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		// Joined callers must not fail because the first caller went away.
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportQueryTimeout)
		defer cancel()

		payments, err := s.store.ListCompletedPaymentsBetween(qctx, in.PeriodStart, in.PeriodEnd)
		if err != nil {
			return nil, fmt.Errorf("list payments: %w", err)
		}
		r := core.BuildRevenueReport(in.PeriodStart, in.PeriodEnd, payments)
		if s.reports != nil && s.reportGen.Load() == gen {
			s.reports.Set(qctx, key, r)
			// A payment may have purged between the check and the Set.
			if s.reportGen.Load() != gen {
				s.reports.Delete(qctx, key)
			}
		}
		return r, nil
	})
	if err != nil {
		return core.RevenueReport{}, err
	}
	r := v.(core.RevenueReport)

	s.logger.DebugContext(ctx, "Revenue report generated",
		applog.FieldPeriodStart, in.PeriodStart.String(),
		applog.FieldPeriodEnd, in.PeriodEnd.String(),
		"payment_count", r.PaymentCount,
		"shared", shared)
	return r, nil
}
