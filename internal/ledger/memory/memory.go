package memory

import (
	"context"
	"fmt"
	"sync"

	"palestra/internal/core"
	"palestra/internal/ledger"
)

var _ ledger.PaymentLedgerWriter = (*Ledger)(nil)

// Ledger keeps ledger rows in process. Used when no spreadsheet is
// configured and in tests.
type Ledger struct {
	mu        sync.Mutex
	rows      []ledger.Row
	byPayment map[int64]string
}

func New() *Ledger {
	return &Ledger{byPayment: map[int64]string{}}
}

// AppendPayment stores the payment and returns a synthetic row reference.
func (l *Ledger) AppendPayment(_ context.Context, p core.Payment) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if ref, ok := l.byPayment[p.ID]; ok {
		return ref, nil
	}
	l.rows = append(l.rows, ledger.RowFromPayment(p))
	ref := fmt.Sprintf("mem:%d", len(l.rows))
	l.byPayment[p.ID] = ref
	return ref, nil
}

// Rows returns a copy of the appended rows in insertion order.
func (l *Ledger) Rows() []ledger.Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ledger.Row(nil), l.rows...)
}
