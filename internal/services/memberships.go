package services

import (
	"context"
	"fmt"

	"palestra/internal/amqp"
	"palestra/internal/core"
	applog "palestra/internal/log"
)

func (s *GymService) CreateMembershipType(ctx context.Context, in core.CreateMembershipTypeInput) (core.MembershipType, error) {
	mt := in.MembershipType()
	if err := mt.Validate(); err != nil {
		return core.MembershipType{}, err
	}
	created, err := s.store.CreateMembershipType(ctx, mt)
	if err != nil {
		return core.MembershipType{}, fmt.Errorf("create membership type: %w", err)
	}
	return created, nil
}

func (s *GymService) GetMembershipType(ctx context.Context, in core.IDInput) (core.MembershipType, error) {
	return s.store.GetMembershipType(ctx, in.ID)
}

func (s *GymService) GetMembershipTypes(ctx context.Context) ([]core.MembershipType, error) {
	return s.store.ListMembershipTypes(ctx)
}

// UpdateMembershipType changes a plan. Existing memberships keep the end
// date computed when they were created.
func (s *GymService) UpdateMembershipType(ctx context.Context, in core.UpdateMembershipTypeInput) (core.MembershipType, error) {
	mt, err := s.store.GetMembershipType(ctx, in.ID)
	if err != nil {
		return core.MembershipType{}, err
	}
	in.ApplyTo(&mt)
	if err := mt.Validate(); err != nil {
		return core.MembershipType{}, err
	}
	updated, err := s.store.UpdateMembershipType(ctx, mt)
	if err != nil {
		return core.MembershipType{}, fmt.Errorf("update membership type %d: %w", in.ID, err)
	}
	return updated, nil
}

// CreateMembership subscribes a member to an active plan. The end date is
// the start date plus the plan's duration in calendar months.
func (s *GymService) CreateMembership(ctx context.Context, in core.CreateMembershipInput) (core.Membership, error) {
	if in.StartDate != nil {
		if err := in.StartDate.Validate(); err != nil {
			return core.Membership{}, err
		}
	}
	if err := s.requireExists(ctx, core.KindMember, in.MemberID); err != nil {
		return core.Membership{}, err
	}
	plan, err := s.store.GetMembershipType(ctx, in.MembershipTypeID)
	if err != nil {
		return core.Membership{}, err
	}
	if !plan.IsActive {
		return core.Membership{}, core.Invalidf("Membership type with id %d is not active", plan.ID)
	}

	m := in.Membership(s.today(), plan)
	if err := m.Validate(); err != nil {
		return core.Membership{}, err
	}
	created, err := s.store.CreateMembership(ctx, m)
	if err != nil {
		return core.Membership{}, fmt.Errorf("create membership: %w", err)
	}
	s.logger.InfoContext(ctx, "Membership created",
		applog.FieldMembershipID, created.ID,
		applog.FieldMemberID, created.MemberID,
		"end_date", created.EndDate.String())
	s.publish(ctx, amqp.EventMembershipCreated, created.ID, created.MemberID)
	return created, nil
}

func (s *GymService) GetMembership(ctx context.Context, in core.IDInput) (core.Membership, error) {
	return s.store.GetMembership(ctx, in.ID)
}

func (s *GymService) GetMemberships(ctx context.Context) ([]core.Membership, error) {
	return s.store.ListMemberships(ctx)
}
