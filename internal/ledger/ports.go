package ledger

import (
	"context"
	"strconv"

	"palestra/internal/core"
)

// PaymentLedgerWriter appends payments to an external bookkeeping ledger.
// Appending the same payment twice returns the existing row reference.
type PaymentLedgerWriter interface {
	AppendPayment(ctx context.Context, p core.Payment) (rowRef string, err error)
}

// Header is the first row of every ledger sheet.
var Header = []any{"Date", "Member", "Membership", "Method", "Status", "Amount", "Description", "Payment"}

// Row is one ledger line.
type Row struct {
	PaymentID    int64
	Date         core.Date
	MemberID     int64
	MembershipID *int64
	Method       core.PaymentMethod
	Status       core.PaymentStatus
	Amount       core.Money
	Description  string
}

func RowFromPayment(p core.Payment) Row {
	r := Row{
		PaymentID:    p.ID,
		Date:         p.PaymentDate,
		MemberID:     p.MemberID,
		MembershipID: p.MembershipID,
		Method:       p.PaymentMethod,
		Status:       p.Status,
		Amount:       p.Amount,
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	return r
}

// Values renders the row in Header order. Amounts keep a dot separator so
// spreadsheets with any locale read them as numbers.
func (r Row) Values() []any {
	membership := ""
	if r.MembershipID != nil {
		membership = strconv.FormatInt(*r.MembershipID, 10)
	}
	return []any{
		r.Date.String(),
		r.MemberID,
		membership,
		string(r.Method),
		string(r.Status),
		r.Amount.String(),
		r.Description,
		r.PaymentID,
	}
}
