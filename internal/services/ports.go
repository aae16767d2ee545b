package services

import (
	"context"
	"time"

	"palestra/internal/amqp"
	"palestra/internal/core"
)

// Store is the persistence the gym service needs. It is satisfied by
// *storage.SQLiteRepository.
type Store interface {
	Exists(ctx context.Context, kind core.Kind, id int64) (bool, error)

	CreateMember(ctx context.Context, m core.Member) (core.Member, error)
	GetMember(ctx context.Context, id int64) (core.Member, error)
	ListMembers(ctx context.Context) ([]core.Member, error)
	UpdateMember(ctx context.Context, m core.Member) (core.Member, error)

	CreateMemberProgress(ctx context.Context, p core.MemberProgress) (core.MemberProgress, error)
	ListMemberProgress(ctx context.Context, memberID int64) ([]core.MemberProgress, error)

	CreateTrainer(ctx context.Context, t core.Trainer) (core.Trainer, error)
	GetTrainer(ctx context.Context, id int64) (core.Trainer, error)
	ListTrainers(ctx context.Context) ([]core.Trainer, error)
	UpdateTrainer(ctx context.Context, t core.Trainer) (core.Trainer, error)

	CreateMembershipType(ctx context.Context, mt core.MembershipType) (core.MembershipType, error)
	GetMembershipType(ctx context.Context, id int64) (core.MembershipType, error)
	ListMembershipTypes(ctx context.Context) ([]core.MembershipType, error)
	UpdateMembershipType(ctx context.Context, mt core.MembershipType) (core.MembershipType, error)

	CreateMembership(ctx context.Context, m core.Membership) (core.Membership, error)
	GetMembership(ctx context.Context, id int64) (core.Membership, error)
	ListMemberships(ctx context.Context) ([]core.Membership, error)
	ExpireMemberships(ctx context.Context, today core.Date) ([]core.Membership, error)

	CreateClass(ctx context.Context, c core.Class) (core.Class, error)
	GetClass(ctx context.Context, id int64) (core.Class, error)
	ListClasses(ctx context.Context) ([]core.Class, error)
	UpdateClass(ctx context.Context, c core.Class) (core.Class, error)

	CreateClassAttendance(ctx context.Context, a core.ClassAttendance) (core.ClassAttendance, error)
	GetClassAttendance(ctx context.Context, id int64) (core.ClassAttendance, error)
	ListClassAttendance(ctx context.Context, classID int64) ([]core.ClassAttendance, error)
	AttendanceExists(ctx context.Context, classID, memberID int64) (bool, error)
	UpdateClassAttendance(ctx context.Context, a core.ClassAttendance) (core.ClassAttendance, error)

	CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error)
	GetPayment(ctx context.Context, id int64) (core.Payment, error)
	ListPayments(ctx context.Context) ([]core.Payment, error)
	ListCompletedPaymentsBetween(ctx context.Context, start, end core.Date) ([]core.Payment, error)
}

// LedgerQueue is the ledger sync bookkeeping kept next to the payments.
type LedgerQueue interface {
	GetPayment(ctx context.Context, id int64) (core.Payment, error)
	PendingLedgerPayments(ctx context.Context, limit int) ([]int64, error)
	MarkLedgerSynced(ctx context.Context, paymentID int64, rowRef string) error
	MarkLedgerError(ctx context.Context, paymentID int64, cause error) error
}

// EventPublisher is implemented by *amqp.Client.
type EventPublisher interface {
	PublishEvent(ctx context.Context, msg *amqp.EventMessage) error
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time
