// Package sheets defines the spreadsheet ledger port and the row layout
// shared by its adapters.
package sheets

import (
	"fmt"
	"strings"

	"billbook/internal/core"
)

// Header is the ledger's first row, columns A through M.
var Header = []any{
	"Date", "Bill Number", "User", "Client", "Seller", "Currency",
	"Subtotal", "Discount %", "Discount", "Total", "Cost", "Profit", "Status",
}

// Column indexes used to locate a bill's row.
const (
	ColBillNumber = 1
	ColUser       = 2
)

// Row is one bill as written to the ledger.
type Row struct {
	Date           string
	BillNumber     string
	UserID         string
	Client         string
	Seller         string
	Currency       string
	Subtotal       float64
	DiscountPct    float64
	DiscountAmount float64
	Total          float64
	Cost           float64
	Profit         float64
	Status         string
}

// NewRow derives the ledger row. Cost is the sum of cost*quantity and profit
// is revenue before discount minus cost, matching the profit/loss report.
func NewRow(b core.Bill, t core.Totals) Row {
	var cost float64
	for _, it := range b.Items {
		cost += it.Cost * it.Quantity
	}
	return Row{
		Date:           b.Date.String(),
		BillNumber:     b.BillNumber,
		UserID:         b.UserID,
		Client:         b.ClientName,
		Seller:         b.SellerName,
		Currency:       b.Currency,
		Subtotal:       core.Round2(t.Subtotal),
		DiscountPct:    t.Discount,
		DiscountAmount: core.Round2(t.DiscountAmount),
		Total:          core.Round2(t.Total),
		Cost:           core.Round2(cost),
		Profit:         core.Round2(t.Subtotal - cost),
		Status:         b.Status.String(),
	}
}

// Values returns the row as spreadsheet cells in Header order.
func (r Row) Values() []any {
	return []any{
		r.Date, r.BillNumber, r.UserID, r.Client, r.Seller, r.Currency,
		r.Subtotal, r.DiscountPct, r.DiscountAmount, r.Total, r.Cost, r.Profit, r.Status,
	}
}

// FindRows returns the 0-based indexes of every row for (userID, billNumber)
// in a values matrix read from column A.
func FindRows(values [][]any, userID, billNumber string) []int {
	var idx []int
	for i, row := range values {
		if len(row) <= ColUser {
			continue
		}
		if cell(row, ColUser) == userID && cell(row, ColBillNumber) == billNumber {
			idx = append(idx, i)
		}
	}
	return idx
}

func cell(row []any, i int) string {
	return strings.TrimSpace(fmt.Sprint(row[i]))
}
