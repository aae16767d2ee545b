package services

import (
	"context"
	"fmt"

	"palestra/internal/amqp"
	"palestra/internal/core"
)

func (s *GymService) CreateClass(ctx context.Context, in core.CreateClassInput) (core.Class, error) {
	c := in.Class()
	if err := c.Validate(); err != nil {
		return core.Class{}, err
	}
	if err := s.requireExists(ctx, core.KindTrainer, c.TrainerID); err != nil {
		return core.Class{}, err
	}
	created, err := s.store.CreateClass(ctx, c)
	if err != nil {
		return core.Class{}, fmt.Errorf("create class: %w", err)
	}
	s.publish(ctx, amqp.EventClassCreated, created.ID, 0)
	return created, nil
}

func (s *GymService) GetClass(ctx context.Context, in core.IDInput) (core.Class, error) {
	return s.store.GetClass(ctx, in.ID)
}

func (s *GymService) GetClasses(ctx context.Context) ([]core.Class, error) {
	return s.store.ListClasses(ctx)
}

func (s *GymService) UpdateClass(ctx context.Context, in core.UpdateClassInput) (core.Class, error) {
	c, err := s.store.GetClass(ctx, in.ID)
	if err != nil {
		return core.Class{}, err
	}
	in.ApplyTo(&c)
	if err := c.Validate(); err != nil {
		return core.Class{}, err
	}
	if in.TrainerID.Set {
		if err := s.requireExists(ctx, core.KindTrainer, c.TrainerID); err != nil {
			return core.Class{}, err
		}
	}
	updated, err := s.store.UpdateClass(ctx, c)
	if err != nil {
		return core.Class{}, fmt.Errorf("update class %d: %w", in.ID, err)
	}
	return updated, nil
}

// CreateClassAttendance books a member into a class. The pre-check gives a
// clear error in the common case; the unique index on (class_id, member_id)
// still decides concurrent duplicates.
func (s *GymService) CreateClassAttendance(ctx context.Context, in core.CreateClassAttendanceInput) (core.ClassAttendance, error) {
	a := in.ClassAttendance()
	if err := s.requireAll(ctx,
		ref{core.KindClass, a.ClassID},
		ref{core.KindMember, a.MemberID},
	); err != nil {
		return core.ClassAttendance{}, err
	}
	exists, err := s.store.AttendanceExists(ctx, a.ClassID, a.MemberID)
	if err != nil {
		return core.ClassAttendance{}, fmt.Errorf("check attendance: %w", err)
	}
	if exists {
		return core.ClassAttendance{}, core.NewAttendanceConflict(a.ClassID, a.MemberID)
	}
	created, err := s.store.CreateClassAttendance(ctx, a)
	if err != nil {
		return core.ClassAttendance{}, fmt.Errorf("create attendance: %w", err)
	}
	s.publish(ctx, amqp.EventAttendanceRecorded, created.ID, created.MemberID)
	return created, nil
}

// GetClassAttendance lists the attendance records of a class.
func (s *GymService) GetClassAttendance(ctx context.Context, in core.ClassIDInput) ([]core.ClassAttendance, error) {
	return s.store.ListClassAttendance(ctx, in.ClassID)
}

func (s *GymService) UpdateClassAttendance(ctx context.Context, in core.UpdateClassAttendanceInput) (core.ClassAttendance, error) {
	a, err := s.store.GetClassAttendance(ctx, in.ID)
	if err != nil {
		return core.ClassAttendance{}, err
	}
	in.ApplyTo(&a)
	updated, err := s.store.UpdateClassAttendance(ctx, a)
	if err != nil {
		return core.ClassAttendance{}, fmt.Errorf("update attendance %d: %w", in.ID, err)
	}
	return updated, nil
}
