package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"palestra/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "palestra.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func strPtr(s string) *string { return &s }

func seedMember(t *testing.T, repo *SQLiteRepository, email string) core.Member {
	t.Helper()
	m, err := repo.CreateMember(context.Background(), core.Member{
		FirstName: "Ada", LastName: "Lovelace", Email: email, JoinDate: core.NewDate(2025, 1, 2),
	})
	require.NoError(t, err)
	return m
}

func seedTrainer(t *testing.T, repo *SQLiteRepository) core.Trainer {
	t.Helper()
	rate := core.Money{Cents: 3550}
	tr, err := repo.CreateTrainer(context.Background(), core.Trainer{
		FirstName: "Rocky", LastName: "Balboa", Email: "rocky@example.com",
		HourlyRate: &rate, HireDate: core.NewDate(2024, 9, 1), IsActive: true,
	})
	require.NoError(t, err)
	return tr
}

func TestMigrationsApplied(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	version, dirty, err := SchemaVersion(DSN(path))
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.EqualValues(t, 2, version)

	// Reopening an up-to-date database is a no-op.
	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())
}

func TestMemberRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	dob := core.NewDate(1990, 12, 10)
	created, err := repo.CreateMember(ctx, core.Member{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
		Phone: strPtr("555-0101"), DateOfBirth: &dob, JoinDate: core.NewDate(2025, 1, 2),
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	require.NotNil(t, created.DateOfBirth)
	assert.Equal(t, "1990-12-10", created.DateOfBirth.String())
	assert.Nil(t, created.MedicalConditions)

	got, err := repo.GetMember(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	got.LastName = "Byron"
	got.Phone = nil
	updated, err := repo.UpdateMember(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Byron", updated.LastName)
	assert.Nil(t, updated.Phone)
	assert.Equal(t, "2025-01-02", updated.JoinDate.String())

	_, err = repo.GetMember(ctx, 9999)
	var nf *core.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, core.KindMember, nf.Kind)
	assert.EqualValues(t, 9999, nf.ID)

	_, err = repo.UpdateMember(ctx, core.Member{ID: 4242, FirstName: "x", LastName: "y", Email: "z@example.com"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDuplicateEmailIsConstraintViolation(t *testing.T) {
	repo := newTestRepo(t)
	seedMember(t, repo, "dup@example.com")

	_, err := repo.CreateMember(context.Background(), core.Member{
		FirstName: "B", LastName: "C", Email: "dup@example.com", JoinDate: core.NewDate(2025, 1, 2),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConstraint)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	tr := seedTrainer(t, repo)

	ok, err := repo.Exists(ctx, core.KindTrainer, tr.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, core.KindTrainer, tr.ID+1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Exists(ctx, core.Kind("Locker"), 1)
	assert.Error(t, err)
}

func TestTrainerHourlyRate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	tr := seedTrainer(t, repo)

	require.NotNil(t, tr.HourlyRate)
	assert.Equal(t, "35.50", tr.HourlyRate.String())
	assert.True(t, tr.IsActive)

	tr.HourlyRate = nil
	tr.IsActive = false
	updated, err := repo.UpdateTrainer(ctx, tr)
	require.NoError(t, err)
	assert.Nil(t, updated.HourlyRate)
	assert.False(t, updated.IsActive)
}

func TestMemberProgressOrderAndMeasures(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m := seedMember(t, repo, "p@example.com")

	w := core.NewMeasure("72.50")
	for _, d := range []core.Date{core.NewDate(2025, 1, 1), core.NewDate(2025, 3, 1), core.NewDate(2025, 2, 1)} {
		_, err := repo.CreateMemberProgress(ctx, core.MemberProgress{MemberID: m.ID, Weight: &w, RecordedDate: d})
		require.NoError(t, err)
	}

	records, err := repo.ListMemberProgress(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2025-03-01", records[0].RecordedDate.String())
	assert.Equal(t, "2025-01-01", records[2].RecordedDate.String())
	require.NotNil(t, records[0].Weight)
	assert.True(t, records[0].Weight.Equal(w.Decimal))
	assert.Nil(t, records[0].BodyFatPercentage)

	_, err = repo.CreateMemberProgress(ctx, core.MemberProgress{MemberID: 777, RecordedDate: core.NewDate(2025, 1, 1)})
	assert.ErrorIs(t, err, core.ErrConstraint, "foreign keys must be enforced")
}

func TestClassesOrderedBySchedule(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	tr := seedTrainer(t, repo)

	mk := func(name string, d core.Date, start string) {
		_, err := repo.CreateClass(ctx, core.Class{
			Name: name, TrainerID: tr.ID, MaxCapacity: 10, DurationMinutes: 60, ClassDate: d, StartTime: start,
		})
		require.NoError(t, err)
	}
	mk("late", core.NewDate(2025, 5, 2), "18:00")
	mk("early", core.NewDate(2025, 5, 1), "09:00")
	mk("midday", core.NewDate(2025, 5, 2), "12:00")

	classes, err := repo.ListClasses(ctx)
	require.NoError(t, err)
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"early", "midday", "late"}, names)
}

func TestAttendanceUniqueConstraintIsConflict(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	tr := seedTrainer(t, repo)
	m := seedMember(t, repo, "a@example.com")
	c, err := repo.CreateClass(ctx, core.Class{
		Name: "Yoga", TrainerID: tr.ID, MaxCapacity: 5, DurationMinutes: 45,
		ClassDate: core.NewDate(2025, 6, 1), StartTime: "07:30",
	})
	require.NoError(t, err)

	checkIn := time.Date(2025, 6, 1, 7, 25, 0, 0, time.UTC)
	first, err := repo.CreateClassAttendance(ctx, core.ClassAttendance{ClassID: c.ID, MemberID: m.ID, Attended: true, CheckInTime: &checkIn})
	require.NoError(t, err)
	require.NotNil(t, first.CheckInTime)
	assert.True(t, first.CheckInTime.Equal(checkIn))

	exists, err := repo.AttendanceExists(ctx, c.ID, m.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.CreateClassAttendance(ctx, core.ClassAttendance{ClassID: c.ID, MemberID: m.ID})
	assert.ErrorIs(t, err, core.ErrConflict)

	first.Attended = false
	first.CheckInTime = nil
	updated, err := repo.UpdateClassAttendance(ctx, first)
	require.NoError(t, err)
	assert.False(t, updated.Attended)
	assert.Nil(t, updated.CheckInTime)
}

func TestPaymentsAndLedgerQueue(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m := seedMember(t, repo, "pay@example.com")

	mk := func(cents int64, d core.Date, status core.PaymentStatus) core.Payment {
		p, err := repo.CreatePayment(ctx, core.Payment{
			MemberID: m.ID, Amount: core.Money{Cents: cents}, PaymentMethod: core.MethodCash,
			PaymentDate: d, Status: status,
		})
		require.NoError(t, err)
		return p
	}
	p1 := mk(1000, core.NewDate(2025, 1, 1), core.PaymentCompleted)
	p2 := mk(2000, core.NewDate(2025, 1, 31), core.PaymentCompleted)
	mk(4000, core.NewDate(2025, 1, 15), core.PaymentRefunded)
	mk(8000, core.NewDate(2025, 2, 1), core.PaymentCompleted)

	all, err := repo.ListPayments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "2025-02-01", all[0].PaymentDate.String(), "most recent first")

	inJan, err := repo.ListCompletedPaymentsBetween(ctx, core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31))
	require.NoError(t, err)
	require.Len(t, inJan, 2)
	assert.Equal(t, p1.ID, inJan[0].ID)
	assert.Equal(t, p2.ID, inJan[1].ID)

	pending, err := repo.PendingLedgerPayments(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 4)

	require.NoError(t, repo.MarkLedgerSynced(ctx, p1.ID, "Payments!A2"))
	require.NoError(t, repo.MarkLedgerError(ctx, p2.ID, errors.New("quota exceeded")))

	status, attempts, err := repo.LedgerSyncStatus(ctx, p2.ID)
	require.NoError(t, err)
	assert.Equal(t, "error", status)
	assert.Equal(t, 1, attempts)

	pending, err = repo.PendingLedgerPayments(ctx, 10)
	require.NoError(t, err)
	assert.NotContains(t, pending, p1.ID)
	assert.Contains(t, pending, p2.ID)
}

func TestExpireMemberships(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m := seedMember(t, repo, "e@example.com")
	mt, err := repo.CreateMembershipType(ctx, core.MembershipType{
		Name: "Monthly", DurationMonths: 1, Price: core.Money{Cents: 4000}, IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "40.00", mt.Price.String())

	mk := func(start core.Date) core.Membership {
		ms, err := repo.CreateMembership(ctx, core.Membership{
			MemberID: m.ID, MembershipTypeID: mt.ID, StartDate: start, EndDate: start.AddMonths(1), Status: core.MembershipActive,
		})
		require.NoError(t, err)
		return ms
	}
	old := mk(core.NewDate(2025, 1, 1))
	endsToday := mk(core.NewDate(2025, 2, 10))

	expired, err := repo.ExpireMemberships(ctx, core.NewDate(2025, 3, 10))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, old.ID, expired[0].ID)
	assert.Equal(t, core.MembershipExpired, expired[0].Status)

	still, err := repo.GetMembership(ctx, endsToday.ID)
	require.NoError(t, err)
	assert.Equal(t, core.MembershipActive, still.Status)
}
