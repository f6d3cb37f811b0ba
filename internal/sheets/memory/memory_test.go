package memory

import (
	"context"
	"testing"

	"billbook/internal/core"
)

func testBill(user, number string) core.Bill {
	b := core.Bill{
		UserID:     user,
		BillNumber: number,
		SellerName: "Shop",
		ClientName: "Asha",
		Date:       core.NewDate(2024, 3, 1),
		Currency:   "₹",
		Status:     core.StatusPaid,
		Items:      []core.LineItem{{ItemName: "Pen", Quantity: 2, Rate: 10, Cost: 4}},
	}
	return b
}

func TestLedgerAppendAndDelete(t *testing.T) {
	ctx := context.Background()
	l := New()

	b1 := testBill("u1", "INV-1")
	ref, err := l.AppendBill(ctx, b1, b1.Totals())
	if err != nil {
		t.Fatalf("AppendBill() error = %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}

	b2 := testBill("u2", "INV-1")
	ref, _ = l.AppendBill(ctx, b2, b2.Totals())
	if ref != "mem:2" {
		t.Errorf("ref = %q, want mem:2", ref)
	}

	if err := l.DeleteBill(ctx, "u1", "INV-1"); err != nil {
		t.Fatalf("DeleteBill() error = %v", err)
	}
	if err := l.DeleteBill(ctx, "u1", "missing"); err != nil {
		t.Fatalf("DeleteBill() on missing row error = %v", err)
	}

	rows := l.Rows()
	if len(rows) != 1 || rows[0].UserID != "u2" {
		t.Fatalf("rows = %+v, want only u2's bill", rows)
	}
	if rows[0].Total != 20 || rows[0].Cost != 8 || rows[0].Profit != 12 {
		t.Errorf("row money = %+v", rows[0])
	}
}
