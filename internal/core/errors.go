package core

import (
	"errors"
	"fmt"
)

// Kind names an entity for existence checks and not-found messages.
type Kind string

const (
	KindMember         Kind = "Member"
	KindMemberProgress Kind = "Member progress record"
	KindTrainer        Kind = "Trainer"
	KindMembershipType Kind = "Membership type"
	KindMembership     Kind = "Membership"
	KindClass          Kind = "Class"
	KindAttendance     Kind = "Class attendance record"
	KindPayment        Kind = "Payment"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	// ErrConstraint marks a violation reported by the store itself. The
	// store's own error is always joined to it.
	ErrConstraint = errors.New("constraint violation")
)

// NotFoundError reports a missing entity, either looked up directly or
// referenced by a foreign key.
type NotFoundError struct {
	Kind Kind
	ID   int64
}

func NewNotFound(kind Kind, id int64) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError reports a duplicate record.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewAttendanceConflict is returned when a member already has an attendance
// record for a class.
func NewAttendanceConflict(classID, memberID int64) *ConflictError {
	return &ConflictError{
		Message: fmt.Sprintf("Attendance record already exists for member %d in class %d", memberID, classID),
	}
}

// Invalidf builds a validation error that matches ErrInvalidInput.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
