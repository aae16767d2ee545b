package services

import (
	"context"
	"fmt"

	"palestra/internal/core"
)

// ref names one referenced entity.
type ref struct {
	kind core.Kind
	id   int64
}

// requireExists fails with a NotFoundError naming kind and id when the
// referenced row is absent.
func (s *GymService) requireExists(ctx context.Context, kind core.Kind, id int64) error {
	ok, err := s.store.Exists(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("check %s %d: %w", kind, id, err)
	}
	if !ok {
		return core.NewNotFound(kind, id)
	}
	return nil
}

// requireAll checks refs in order and stops at the first missing one.
func (s *GymService) requireAll(ctx context.Context, refs ...ref) error {
	for _, r := range refs {
		if err := s.requireExists(ctx, r.kind, r.id); err != nil {
			return err
		}
	}
	return nil
}
