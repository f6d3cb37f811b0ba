package core

import (
	"math"
	"reflect"
	"testing"
)

func TestComputeTotals(t *testing.T) {
	cases := []struct {
		name     string
		items    []LineItem
		discount float64
		subtotal float64
		discAmt  float64
		total    float64
	}{
		{"no items", nil, 0, 0, 0, 0},
		{"no items with discount", nil, 50, 0, 0, 0},
		{"ten percent of 200", []LineItem{{ItemName: "A", Quantity: 2, Rate: 50}, {ItemName: "B", Quantity: 4, Rate: 25}}, 10, 200, 20, 180},
		{"fractional quantity", []LineItem{{ItemName: "Rice", Quantity: 1.5, Rate: 40}}, 0, 60, 0, 60},
		{"discount above 100 ignored", []LineItem{{ItemName: "A", Quantity: 1, Rate: 100}}, 150, 100, 0, 100},
		{"negative discount ignored", []LineItem{{ItemName: "A", Quantity: 1, Rate: 100}}, -5, 100, 0, 100},
		{"full discount", []LineItem{{ItemName: "A", Quantity: 1, Rate: 100}}, 100, 100, 100, 0},
		{"negative rate kept", []LineItem{{ItemName: "Refund", Quantity: 1, Rate: -30}}, 0, -30, 0, -30},
		{"nan rate counts as zero", []LineItem{{ItemName: "A", Quantity: 3, Rate: math.NaN()}}, 0, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTotals(tc.items, tc.discount)
			if Round2(got.Subtotal) != tc.subtotal || Round2(got.DiscountAmount) != tc.discAmt || Round2(got.Total) != tc.total {
				t.Fatalf("got subtotal=%v discount=%v total=%v, want %v/%v/%v",
					got.Subtotal, got.DiscountAmount, got.Total, tc.subtotal, tc.discAmt, tc.total)
			}
			if len(got.Lines) != len(tc.items) {
				t.Fatalf("expected %d lines, got %d", len(tc.items), len(got.Lines))
			}
			if again := ComputeTotals(tc.items, tc.discount); !reflect.DeepEqual(got, again) {
				t.Fatalf("repeated call differs: %+v vs %+v", got, again)
			}
		})
	}
}

func TestComputeTotalsLineAmounts(t *testing.T) {
	got := ComputeTotals([]LineItem{
		{ItemName: "Pen", Quantity: 10, Rate: 5},
		{ItemName: "Book", Quantity: 2, Rate: 20},
	}, 0)
	if got.Lines[0].Amount != 50 || got.Lines[1].Amount != 40 {
		t.Fatalf("unexpected line amounts: %+v", got.Lines)
	}
	if got.Lines[0].ItemName != "Pen" {
		t.Fatalf("line order not preserved: %+v", got.Lines)
	}
}

func TestTotalsSnapshotAndGST(t *testing.T) {
	b := Bill{
		Items:       []LineItem{{ItemName: "Gold", Quantity: 3, Rate: 33333.33}},
		Discount:    0,
		TotalAmount: 99999.99,
	}
	tot := b.Totals()
	if !tot.MatchesSnapshot(b.TotalAmount) {
		t.Fatalf("expected snapshot match, total=%v", tot.Total)
	}
	if !tot.GSTNotice() {
		t.Fatalf("expected GST notice above %v", GSTThreshold)
	}
	if (Totals{Total: GSTThreshold}).GSTNotice() {
		t.Fatalf("threshold itself should not trigger the notice")
	}
	if tot.MatchesSnapshot(99999.90) {
		t.Fatalf("expected mismatch for different snapshot")
	}
}
