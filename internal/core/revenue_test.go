package core

import "testing"

func int64Ptr(v int64) *int64 { return &v }

func checkReportInvariants(t *testing.T, r RevenueReport) {
	t.Helper()
	if r.MembershipRevenue.Add(r.OtherRevenue) != r.TotalRevenue {
		t.Fatalf("membership %s + other %s != total %s", r.MembershipRevenue, r.OtherRevenue, r.TotalRevenue)
	}
	var sum Money
	for _, m := range PaymentMethods {
		v, ok := r.BreakdownByMethod[m]
		if !ok {
			t.Fatalf("breakdown is missing method %s", m)
		}
		sum = sum.Add(v)
	}
	if len(r.BreakdownByMethod) != len(PaymentMethods) {
		t.Fatalf("unexpected breakdown keys: %v", r.BreakdownByMethod)
	}
	if sum != r.TotalRevenue {
		t.Fatalf("breakdown sum %s != total %s", sum, r.TotalRevenue)
	}
}

func TestBuildRevenueReportMixedPayments(t *testing.T) {
	start, end := NewDate(2025, 1, 1), NewDate(2025, 1, 31)
	payments := []Payment{
		{ID: 1, Amount: Money{Cents: 10000}, PaymentMethod: MethodCash, PaymentDate: NewDate(2025, 1, 10), Status: PaymentCompleted},
		{ID: 2, MembershipID: int64Ptr(7), Amount: Money{Cents: 5050}, PaymentMethod: MethodCard, PaymentDate: NewDate(2025, 1, 12), Status: PaymentCompleted},
		{ID: 3, Amount: Money{Cents: 20000}, PaymentMethod: MethodCard, PaymentDate: NewDate(2025, 1, 15), Status: PaymentPending},
	}

	r := BuildRevenueReport(start, end, payments)
	checkReportInvariants(t, r)

	if r.TotalRevenue.String() != "150.50" {
		t.Fatalf("total: got %s", r.TotalRevenue)
	}
	if r.MembershipRevenue.String() != "50.50" || r.OtherRevenue.String() != "100.00" {
		t.Fatalf("split: membership %s other %s", r.MembershipRevenue, r.OtherRevenue)
	}
	if r.PaymentCount != 2 {
		t.Fatalf("count: got %d", r.PaymentCount)
	}
	want := map[PaymentMethod]int64{MethodCash: 10000, MethodCard: 5050, MethodBankTransfer: 0, MethodOnline: 0}
	for m, cents := range want {
		if r.BreakdownByMethod[m].Cents != cents {
			t.Fatalf("%s: expected %d, got %d", m, cents, r.BreakdownByMethod[m].Cents)
		}
	}
	if !r.PeriodStart.Equal(start) || !r.PeriodEnd.Equal(end) {
		t.Fatalf("period must be echoed back, got %s..%s", r.PeriodStart, r.PeriodEnd)
	}
}

func TestBuildRevenueReportBoundaries(t *testing.T) {
	start, end := NewDate(2025, 2, 1), NewDate(2025, 2, 28)
	mk := func(d Date) Payment {
		return Payment{Amount: Money{Cents: 100}, PaymentMethod: MethodOnline, PaymentDate: d, Status: PaymentCompleted}
	}
	payments := []Payment{
		mk(NewDate(2025, 1, 31)),
		mk(start),
		mk(NewDate(2025, 2, 14)),
		mk(end),
		mk(NewDate(2025, 3, 1)),
	}

	r := BuildRevenueReport(start, end, payments)
	checkReportInvariants(t, r)
	if r.PaymentCount != 3 || r.TotalRevenue.Cents != 300 {
		t.Fatalf("expected both boundaries included and outside dates excluded, got count %d total %s", r.PaymentCount, r.TotalRevenue)
	}
}

func TestBuildRevenueReportIgnoresNonCompleted(t *testing.T) {
	d := NewDate(2025, 5, 5)
	var payments []Payment
	for _, s := range []PaymentStatus{PaymentPending, PaymentFailed, PaymentRefunded} {
		payments = append(payments, Payment{Amount: Money{Cents: 999}, PaymentMethod: MethodBankTransfer, PaymentDate: d, Status: s})
	}

	r := BuildRevenueReport(d, d, payments)
	checkReportInvariants(t, r)
	if r.PaymentCount != 0 || !r.TotalRevenue.IsZero() {
		t.Fatalf("non-completed payments must not count, got %+v", r)
	}
}

func TestBuildRevenueReportEmpty(t *testing.T) {
	r := BuildRevenueReport(NewDate(2025, 1, 1), NewDate(2025, 1, 31), nil)
	checkReportInvariants(t, r)
	if r.PaymentCount != 0 || !r.TotalRevenue.IsZero() || !r.MembershipRevenue.IsZero() || !r.OtherRevenue.IsZero() {
		t.Fatalf("expected zero report, got %+v", r)
	}

	reversed := BuildRevenueReport(NewDate(2025, 1, 31), NewDate(2025, 1, 1), []Payment{
		{Amount: Money{Cents: 100}, PaymentMethod: MethodCash, PaymentDate: NewDate(2025, 1, 15), Status: PaymentCompleted},
	})
	checkReportInvariants(t, reversed)
	if reversed.PaymentCount != 0 {
		t.Fatalf("reversed period must be empty, got %d", reversed.PaymentCount)
	}
}

func TestBuildRevenueReportOrderIndependent(t *testing.T) {
	start, end := NewDate(2025, 1, 1), NewDate(2025, 12, 31)
	payments := []Payment{
		{Amount: Money{Cents: 1}, PaymentMethod: MethodCash, PaymentDate: NewDate(2025, 3, 1), Status: PaymentCompleted},
		{Amount: Money{Cents: 20}, MembershipID: int64Ptr(1), PaymentMethod: MethodOnline, PaymentDate: NewDate(2025, 6, 1), Status: PaymentCompleted},
		{Amount: Money{Cents: 300}, PaymentMethod: MethodBankTransfer, PaymentDate: NewDate(2025, 9, 1), Status: PaymentCompleted},
	}
	reversed := []Payment{payments[2], payments[1], payments[0]}

	a := BuildRevenueReport(start, end, payments)
	b := BuildRevenueReport(start, end, reversed)
	if a.TotalRevenue != b.TotalRevenue || a.MembershipRevenue != b.MembershipRevenue || a.PaymentCount != b.PaymentCount {
		t.Fatalf("order changed the result: %+v vs %+v", a, b)
	}
}
