package ledger

import (
	"reflect"
	"testing"

	"palestra/internal/core"
)

func TestRowValues(t *testing.T) {
	membership := int64(4)
	desc := "Annual plan"
	p := core.Payment{
		ID:            12,
		MemberID:      9,
		MembershipID:  &membership,
		Amount:        core.Money{Cents: 5050},
		PaymentMethod: core.MethodCard,
		PaymentDate:   core.NewDate(2024, 12, 15),
		Description:   &desc,
		Status:        core.PaymentCompleted,
	}

	got := RowFromPayment(p).Values()
	want := []any{"2024-12-15", int64(9), "4", "card", "completed", "50.50", "Annual plan", int64(12)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Values() = %#v, want %#v", got, want)
	}
	if len(got) != len(Header) {
		t.Fatalf("row has %d columns, header has %d", len(got), len(Header))
	}

	p.MembershipID = nil
	p.Description = nil
	got = RowFromPayment(p).Values()
	if got[2] != "" || got[6] != "" {
		t.Fatalf("optional columns should be blank, got %#v", got)
	}
}
