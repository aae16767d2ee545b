package services

import (
	"context"
	"fmt"

	"palestra/internal/amqp"
	"palestra/internal/core"
	applog "palestra/internal/log"
)

func (s *GymService) CreateMember(ctx context.Context, in core.CreateMemberInput) (core.Member, error) {
	m := in.Member(s.today())
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}
	created, err := s.store.CreateMember(ctx, m)
	if err != nil {
		return core.Member{}, fmt.Errorf("create member: %w", err)
	}
	s.publish(ctx, amqp.EventMemberCreated, created.ID, created.ID)
	return created, nil
}

func (s *GymService) GetMember(ctx context.Context, in core.IDInput) (core.Member, error) {
	return s.store.GetMember(ctx, in.ID)
}

func (s *GymService) GetMembers(ctx context.Context) ([]core.Member, error) {
	return s.store.ListMembers(ctx)
}

// UpdateMember patches the fields present in the input. Nothing is written
// when the merged member fails validation.
func (s *GymService) UpdateMember(ctx context.Context, in core.UpdateMemberInput) (core.Member, error) {
	m, err := s.store.GetMember(ctx, in.ID)
	if err != nil {
		return core.Member{}, err
	}
	in.ApplyTo(&m)
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}
	updated, err := s.store.UpdateMember(ctx, m)
	if err != nil {
		return core.Member{}, fmt.Errorf("update member %d: %w", in.ID, err)
	}
	s.logger.InfoContext(ctx, "Member updated", applog.FieldMemberID, updated.ID)
	return updated, nil
}

func (s *GymService) CreateMemberProgress(ctx context.Context, in core.CreateMemberProgressInput) (core.MemberProgress, error) {
	p := in.MemberProgress(s.today())
	if err := p.Validate(); err != nil {
		return core.MemberProgress{}, err
	}
	if err := s.requireExists(ctx, core.KindMember, p.MemberID); err != nil {
		return core.MemberProgress{}, err
	}
	created, err := s.store.CreateMemberProgress(ctx, p)
	if err != nil {
		return core.MemberProgress{}, fmt.Errorf("create member progress: %w", err)
	}
	return created, nil
}

// GetMemberProgress lists a member's records, newest first.
func (s *GymService) GetMemberProgress(ctx context.Context, in core.MemberIDInput) ([]core.MemberProgress, error) {
	return s.store.ListMemberProgress(ctx, in.MemberID)
}
