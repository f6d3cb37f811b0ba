// Package memory is an in-process bill ledger for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"billbook/internal/core"
	"billbook/internal/sheets"
)

type Ledger struct {
	mu   sync.Mutex
	rows []*sheets.Row
}

var _ sheets.BillLedger = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{}
}

// AppendBill stores the row and returns a synthetic reference.
func (l *Ledger) AppendBill(_ context.Context, b core.Bill, t core.Totals) (string, error) {
	row := sheets.NewRow(b, t)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, &row)
	return fmt.Sprintf("mem:%d", len(l.rows)), nil
}

// DeleteBill clears the matching row, keeping later references stable.
func (l *Ledger) DeleteBill(_ context.Context, userID, billNumber string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, r := range l.rows {
		if r != nil && r.UserID == userID && r.BillNumber == billNumber {
			l.rows[i] = nil
		}
	}
	return nil
}

// Rows returns the non-cleared rows in append order.
func (l *Ledger) Rows() []sheets.Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]sheets.Row, 0, len(l.rows))
	for _, r := range l.rows {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
