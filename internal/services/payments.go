package services

import (
	"context"
	"fmt"

	"palestra/internal/amqp"
	"palestra/internal/core"
	applog "palestra/internal/log"
)

// CreatePayment records a payment. A payment linked to a membership must
// use a membership of the same member. Cached revenue reports are dropped
// because any period may now include the new payment.
func (s *GymService) CreatePayment(ctx context.Context, in core.CreatePaymentInput) (core.Payment, error) {
	p := in.Payment(s.today())
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	if err := s.requireExists(ctx, core.KindMember, p.MemberID); err != nil {
		return core.Payment{}, err
	}
	if p.MembershipID != nil {
		ms, err := s.store.GetMembership(ctx, *p.MembershipID)
		if err != nil {
			return core.Payment{}, err
		}
		if ms.MemberID != p.MemberID {
			return core.Payment{}, core.Invalidf("Membership with id %d does not belong to member %d", ms.ID, p.MemberID)
		}
	}

	created, err := s.store.CreatePayment(ctx, p)
	if err != nil {
		return core.Payment{}, fmt.Errorf("create payment: %w", err)
	}
	s.invalidateReports(ctx)
	applog.NewStructuredLogger(s.logger).LogPaymentRecorded(ctx, created.ID, created.MemberID, created.Amount.Cents, string(created.PaymentMethod))
	s.publish(ctx, amqp.EventPaymentRecorded, created.ID, created.MemberID)
	return created, nil
}

func (s *GymService) GetPayment(ctx context.Context, in core.IDInput) (core.Payment, error) {
	return s.store.GetPayment(ctx, in.ID)
}

func (s *GymService) GetPayments(ctx context.Context) ([]core.Payment, error) {
	return s.store.ListPayments(ctx)
}
