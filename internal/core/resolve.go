package core

import (
	"strings"
	"time"
)

// RawLineItem is a line item as it arrives from forms, JSON or legacy rows,
// before any default resolution.
type RawLineItem struct {
	ID       string `json:"id,omitempty"`
	ItemName string `json:"itemName"`
	Quantity any    `json:"quantity"`
	Rate     any    `json:"rate"`
	Cost     any    `json:"cost"`
}

// RawBill is the loosely typed counterpart of Bill.
type RawBill struct {
	ID                string        `json:"id,omitempty"`
	BillNumber        string        `json:"billNumber"`
	SellerName        string        `json:"sellerName"`
	SellerAddress     string        `json:"sellerAddress"`
	SellerShopNumber  string        `json:"sellerShopNumber"`
	SellerOwnerNumber string        `json:"sellerOwnerNumber"`
	ClientName        string        `json:"clientName"`
	ClientAddress     string        `json:"clientAddress"`
	ClientPhone       string        `json:"clientPhone"`
	ClientEmail       string        `json:"clientEmail"`
	Date              any           `json:"date"`
	Discount          any           `json:"discount"`
	Currency          *string       `json:"currency"`
	TotalAmount       any           `json:"totalAmount"`
	Status            string        `json:"status"`
	Items             []RawLineItem `json:"items"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// Resolve applies the missing-field defaults: quantity, rate and cost fall back to 0.
func (r RawLineItem) Resolve() LineItem {
	return LineItem{
		ID:       r.ID,
		ItemName: r.ItemName,
		Quantity: Number(r.Quantity),
		Rate:     Number(r.Rate),
		Cost:     Number(r.Cost),
	}
}

// Resolve produces a typed Bill. A missing totalAmount is recomputed from the items
// so legacy records keep a consistent total snapshot. Unknown statuses resolve to unpaid.
func (r RawBill) Resolve() Bill {
	b := Bill{
		ID:                r.ID,
		BillNumber:        r.BillNumber,
		SellerName:        r.SellerName,
		SellerAddress:     r.SellerAddress,
		SellerShopNumber:  r.SellerShopNumber,
		SellerOwnerNumber: r.SellerOwnerNumber,
		ClientName:        r.ClientName,
		ClientAddress:     r.ClientAddress,
		ClientPhone:       r.ClientPhone,
		ClientEmail:       r.ClientEmail,
		Date:              ResolveDate(r.Date),
		Discount:          ResolveDiscount(r.Discount),
		Currency:          ResolveCurrency(r.Currency),
		CreatedAt:         r.CreatedAt,
		Items:             make([]LineItem, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		b.Items = append(b.Items, it.Resolve())
	}
	if st, err := ParseStatus(r.Status); err == nil {
		b.Status = st
	} else {
		b.Status = StatusUnpaid
	}
	if r.TotalAmount == nil {
		b.TotalAmount = b.Totals().Total
	} else {
		b.TotalAmount = Number(r.TotalAmount)
	}
	return b
}

// ResolveDiscount coerces a discount percentage; anything outside [0,100] is 0.
func ResolveDiscount(v any) float64 {
	return clampDiscount(Number(v))
}

// ResolveCurrency returns DefaultCurrency for a missing or blank symbol.
func ResolveCurrency(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return DefaultCurrency
	}
	return strings.TrimSpace(*s)
}

// ResolveDate accepts time values, yyyy-MM-dd or RFC3339 strings and unix
// milliseconds. Anything else yields the zero Date.
func ResolveDate(v any) Date {
	switch d := v.(type) {
	case Date:
		return d
	case time.Time:
		return Date{Time: d}
	case *time.Time:
		if d == nil {
			return Date{}
		}
		return Date{Time: *d}
	case string:
		parsed, err := ParseDate(d)
		if err != nil {
			return Date{}
		}
		return parsed
	case nil:
		return Date{}
	default:
		ms := Number(d)
		if ms == 0 {
			return Date{}
		}
		return Date{Time: time.UnixMilli(int64(ms)).UTC()}
	}
}

// ResolveBills resolves a batch of raw records, preserving order.
func ResolveBills(raw []RawBill) []Bill {
	out := make([]Bill, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.Resolve())
	}
	return out
}
