package sheets

import (
	"slices"
	"testing"

	"billbook/internal/core"
)

func TestNewRow(t *testing.T) {
	b := core.Bill{
		UserID:     "u1",
		BillNumber: "INV-9",
		SellerName: "Shop",
		ClientName: "Asha",
		Date:       core.NewDate(2024, 1, 5),
		Discount:   10,
		Currency:   "₹",
		Status:     core.StatusUnpaid,
		Items: []core.LineItem{
			{ItemName: "Pen", Quantity: 10, Rate: 5, Cost: 2},
			{ItemName: "Book", Quantity: 2, Rate: 20, Cost: 10},
		},
	}

	row := NewRow(b, b.Totals())

	if row.Date != "2024-01-05" {
		t.Errorf("Date = %q", row.Date)
	}
	if row.Subtotal != 90 || row.DiscountAmount != 9 || row.Total != 81 {
		t.Errorf("totals = %v/%v/%v, want 90/9/81", row.Subtotal, row.DiscountAmount, row.Total)
	}
	if row.Cost != 40 || row.Profit != 50 {
		t.Errorf("cost/profit = %v/%v, want 40/50", row.Cost, row.Profit)
	}
	if got := len(row.Values()); got != len(Header) {
		t.Errorf("Values() has %d cells, header has %d", got, len(Header))
	}
}

func TestFindRows(t *testing.T) {
	values := [][]any{
		Header,
		{"2024-01-05", "INV-1", "u1"},
		{"2024-01-06", "INV-1", "u2"},
		{},
		{"2024-01-07", " INV-2 ", "u1"},
		{"2024-01-05", "INV-1", "u1"},
		{"2024-01-08", "007", "u1"},
	}

	tests := []struct {
		user, number string
		want         []int
	}{
		{"u1", "INV-1", []int{1, 5}},
		{"u2", "INV-1", []int{2}},
		{"u1", "INV-2", []int{4}},
		{"u1", "007", []int{6}},
		{"u1", "7", nil},
		{"u3", "INV-1", nil},
	}
	for _, tt := range tests {
		if got := FindRows(values, tt.user, tt.number); !slices.Equal(got, tt.want) {
			t.Errorf("FindRows(%s, %s) = %v, want %v", tt.user, tt.number, got, tt.want)
		}
	}
}
