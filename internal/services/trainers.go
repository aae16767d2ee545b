package services

import (
	"context"
	"fmt"

	"palestra/internal/core"
)

func (s *GymService) CreateTrainer(ctx context.Context, in core.CreateTrainerInput) (core.Trainer, error) {
	t := in.Trainer(s.today())
	if err := t.Validate(); err != nil {
		return core.Trainer{}, err
	}
	created, err := s.store.CreateTrainer(ctx, t)
	if err != nil {
		return core.Trainer{}, fmt.Errorf("create trainer: %w", err)
	}
	return created, nil
}

func (s *GymService) GetTrainer(ctx context.Context, in core.IDInput) (core.Trainer, error) {
	return s.store.GetTrainer(ctx, in.ID)
}

func (s *GymService) GetTrainers(ctx context.Context) ([]core.Trainer, error) {
	return s.store.ListTrainers(ctx)
}

func (s *GymService) UpdateTrainer(ctx context.Context, in core.UpdateTrainerInput) (core.Trainer, error) {
	t, err := s.store.GetTrainer(ctx, in.ID)
	if err != nil {
		return core.Trainer{}, err
	}
	in.ApplyTo(&t)
	if err := t.Validate(); err != nil {
		return core.Trainer{}, err
	}
	updated, err := s.store.UpdateTrainer(ctx, t)
	if err != nil {
		return core.Trainer{}, fmt.Errorf("update trainer %d: %w", in.ID, err)
	}
	return updated, nil
}
