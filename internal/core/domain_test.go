package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func validBill() Bill {
	return Bill{
		BillNumber:  "INV-001",
		SellerName:  "Sharma Stores",
		ClientName:  "Asha",
		ClientEmail: "asha@example.com",
		Date:        NewDate(2025, 1, 1),
		Discount:    5,
		Currency:    "₹",
		Status:      StatusUnpaid,
		Items:       []LineItem{{ItemName: "Pen", Quantity: 1, Rate: 10, Cost: 4}},
	}
}

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBillValidate(t *testing.T) {
	if err := validBill().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name  string
		mut   func(*Bill)
		field string
	}{
		{"blank seller", func(b *Bill) { b.SellerName = "  " }, "sellerName"},
		{"blank client", func(b *Bill) { b.ClientName = "" }, "clientName"},
		{"bad email", func(b *Bill) { b.ClientEmail = "nope" }, "clientEmail"},
		{"discount too high", func(b *Bill) { b.Discount = 101 }, "discount"},
		{"negative discount", func(b *Bill) { b.Discount = -1 }, "discount"},
		{"bad status", func(b *Bill) { b.Status = "void" }, "status"},
		{"zero quantity", func(b *Bill) { b.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"negative rate", func(b *Bill) { b.Items[0].Rate = -1 }, "items[0].rate"},
		{"negative cost", func(b *Bill) { b.Items[0].Cost = -1 }, "items[0].cost"},
		{"blank item name", func(b *Bill) { b.Items[0].ItemName = "" }, "items[0].itemName"},
		{"zero date", func(b *Bill) { b.Date = Date{} }, "date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := validBill()
			b.Items = append([]LineItem(nil), b.Items...)
			tc.mut(&b)
			err := b.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tc.field]; !ok {
				t.Fatalf("expected field %q in %v", tc.field, verr.Fields)
			}
		})
	}
}

func TestBillValidateNoItems(t *testing.T) {
	b := validBill()
	b.Items = nil
	err := b.Validate()
	if !errors.Is(err, ErrNoItems) {
		t.Fatalf("expected ErrNoItems, got %v", err)
	}
	if !strings.Contains(err.Error(), "items") {
		t.Fatalf("expected message to name items, got %q", err.Error())
	}
}

func TestBillApplyDefaults(t *testing.T) {
	now := time.Date(2025, 6, 7, 15, 30, 0, 0, time.UTC)
	b := Bill{
		SellerName: "  Shop ",
		Items:      []LineItem{{ItemName: " Pen "}},
	}
	b.ApplyDefaults(now)

	if b.BillNumber == "" || !strings.HasPrefix(b.BillNumber, "BILL-") {
		t.Fatalf("expected generated bill number, got %q", b.BillNumber)
	}
	if b.Currency != DefaultCurrency || b.Status != StatusUnpaid {
		t.Fatalf("unexpected defaults: currency=%q status=%q", b.Currency, b.Status)
	}
	if b.Date.String() != "2025-06-07" {
		t.Fatalf("expected today's date, got %s", b.Date)
	}
	if b.SellerName != "Shop" || b.Items[0].ItemName != "Pen" {
		t.Fatalf("expected trimmed fields, got %q %q", b.SellerName, b.Items[0].ItemName)
	}
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]BillStatus{"paid": StatusPaid, " Unpaid ": StatusUnpaid, "PENDING": StatusPending} {
		got, err := ParseStatus(in)
		if err != nil || got != want {
			t.Fatalf("ParseStatus(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseStatus("void"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Date Date `json:"date"`
	}
	if err := json.Unmarshal([]byte(`{"date":"2025-02-03"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"date":"2025-02-03"}` {
		t.Fatalf("unexpected json %s", out)
	}
	if err := json.Unmarshal([]byte(`{"date":"03/02/2025"}`), &payload); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestClientValidate(t *testing.T) {
	c := Client{Name: " Asha ", Address: " 12 Road "}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if c.Name != "Asha" {
		t.Fatalf("expected trimmed name, got %q", c.Name)
	}
	c.Address = ""
	var verr *ValidationError
	if err := c.Validate(); !errors.As(err, &verr) || verr.Fields["address"] == "" {
		t.Fatalf("expected address error, got %v", err)
	}
}
