package core

// GSTThreshold is the bill total above which the preview carries a GST notice.
const GSTThreshold = 80000.0

// LineAmount is one item's display amount (quantity * rate).
type LineAmount struct {
	ItemName string  `json:"itemName"`
	Quantity float64 `json:"quantity"`
	Rate     float64 `json:"rate"`
	Amount   float64 `json:"amount"`
}

// Totals is the derived money view of one bill.
type Totals struct {
	Lines          []LineAmount `json:"lines"`
	Subtotal       float64      `json:"subtotal"`
	Discount       float64      `json:"discount"`
	DiscountAmount float64      `json:"discountAmount"`
	Total          float64      `json:"total"`
}

// ComputeTotals derives subtotal, discount amount and total for one bill.
// Non-finite numbers count as 0 and a discount outside [0,100] counts as 0.
// Negative quantities or rates are not clamped.
func ComputeTotals(items []LineItem, discount float64) Totals {
	t := Totals{
		Lines:    make([]LineAmount, 0, len(items)),
		Discount: clampDiscount(discount),
	}
	for _, it := range items {
		qty := finite(it.Quantity)
		rate := finite(it.Rate)
		amount := qty * rate
		t.Lines = append(t.Lines, LineAmount{
			ItemName: it.ItemName,
			Quantity: qty,
			Rate:     rate,
			Amount:   amount,
		})
		t.Subtotal += amount
	}
	t.DiscountAmount = t.Subtotal * (t.Discount / 100)
	t.Total = t.Subtotal - t.DiscountAmount
	return t
}

// GSTNotice reports whether the total crosses GSTThreshold.
func (t Totals) GSTNotice() bool {
	return t.Total > GSTThreshold
}

// MatchesSnapshot compares a persisted totalAmount with the recomputed total at 2 decimals.
func (t Totals) MatchesSnapshot(totalAmount float64) bool {
	return Round2(t.Total) == Round2(totalAmount)
}

func clampDiscount(d float64) float64 {
	d = finite(d)
	if d < 0 || d > 100 {
		return 0
	}
	return d
}
