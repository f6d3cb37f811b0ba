package core

import (
	"cmp"
	"slices"
	"time"
)

// Period granularities for the profit/loss series.
const (
	PeriodDay   = "day"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// AggregatedItem is the per-item ledger row, keyed by exact item name.
type AggregatedItem struct {
	ItemName     string  `json:"itemName"`
	Currency     string  `json:"currency"`
	Quantity     float64 `json:"quantity"`
	TotalRevenue float64 `json:"totalRevenue"`
	TotalCost    float64 `json:"totalCost"`
	TotalProfit  float64 `json:"totalProfit"`
}

// PLTotals are the report-wide sums.
type PLTotals struct {
	Revenue       float64 `json:"revenue"`
	Cost          float64 `json:"cost"`
	Profit        float64 `json:"profit"`
	MarginPercent float64 `json:"marginPercent"`
}

// PeriodPoint is one chart bucket. Net is the signed accumulator; Profit and
// Loss are its non-negative halves.
type PeriodPoint struct {
	Period string    `json:"period"`
	Label  string    `json:"label"`
	Start  time.Time `json:"start"`
	Net    float64   `json:"net"`
	Profit float64   `json:"profit"`
	Loss   float64   `json:"loss"`
}

// PLSeries holds the three chronologically ordered series.
type PLSeries struct {
	Daily   []PeriodPoint `json:"daily"`
	Monthly []PeriodPoint `json:"monthly"`
	Yearly  []PeriodPoint `json:"yearly"`
}

// ProfitLoss is the full aggregation result.
type ProfitLoss struct {
	PerItem       []AggregatedItem `json:"perItem"`
	Totals        PLTotals         `json:"totals"`
	Series        PLSeries         `json:"series"`
	Currency      string           `json:"currency"`
	MixedCurrency bool             `json:"mixedCurrency"`
	BillCount     int              `json:"billCount"`
}

type bucket struct {
	key   string
	start time.Time
	net   float64
}

type bucketSet struct {
	layout string
	label  string
	trunc  func(time.Time) time.Time
	byKey  map[string]*bucket
}

func newBucketSet(layout, label string, trunc func(time.Time) time.Time) *bucketSet {
	return &bucketSet{layout: layout, label: label, trunc: trunc, byKey: make(map[string]*bucket)}
}

func (s *bucketSet) add(t time.Time, net float64) {
	start := s.trunc(t)
	key := start.Format(s.layout)
	b, ok := s.byKey[key]
	if !ok {
		b = &bucket{key: key, start: start}
		s.byKey[key] = b
	}
	b.net += net
}

func (s *bucketSet) points() []PeriodPoint {
	out := make([]PeriodPoint, 0, len(s.byKey))
	for _, b := range s.byKey {
		p := PeriodPoint{
			Period: b.key,
			Label:  b.start.Format(s.label),
			Start:  b.start,
			Net:    b.net,
		}
		if b.net >= 0 {
			p.Profit = b.net
		} else {
			p.Loss = -b.net
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b PeriodPoint) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.Period, b.Period)
	})
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// Aggregate reduces bills (with their items already loaded) into the per-item
// ledger, report totals and day/month/year net-profit series. It never fails:
// empty input yields an empty ledger and zero totals.
func Aggregate(bills []Bill) ProfitLoss {
	report := ProfitLoss{
		PerItem:   []AggregatedItem{},
		Currency:  DefaultCurrency,
		BillCount: len(bills),
	}

	index := make(map[string]int)
	daily := newBucketSet(time.DateOnly, "Jan 2", startOfDay)
	monthly := newBucketSet("2006-01", "Jan 2006", startOfMonth)
	yearly := newBucketSet("2006", "2006", startOfYear)

	for i, bill := range bills {
		currency := bill.Currency
		if currency == "" {
			currency = DefaultCurrency
		}
		if i == 0 {
			report.Currency = currency
		} else if currency != report.Currency {
			report.MixedCurrency = true
		}

		var billCost float64
		for _, it := range bill.Items {
			qty := finite(it.Quantity)
			revenue := qty * finite(it.Rate)
			cost := finite(it.Cost) * qty
			billCost += cost

			pos, ok := index[it.ItemName]
			if !ok {
				pos = len(report.PerItem)
				index[it.ItemName] = pos
				report.PerItem = append(report.PerItem, AggregatedItem{
					ItemName: it.ItemName,
					Currency: currency,
				})
			}
			agg := &report.PerItem[pos]
			agg.Quantity += qty
			agg.TotalRevenue += revenue
			agg.TotalCost += cost
		}

		net := finite(bill.TotalAmount) - billCost
		daily.add(bill.Date.Time, net)
		monthly.add(bill.Date.Time, net)
		yearly.add(bill.Date.Time, net)
	}

	for i := range report.PerItem {
		report.PerItem[i].TotalProfit = report.PerItem[i].TotalRevenue - report.PerItem[i].TotalCost
	}
	slices.SortStableFunc(report.PerItem, func(a, b AggregatedItem) int {
		return cmp.Compare(b.TotalRevenue, a.TotalRevenue)
	})

	for _, it := range report.PerItem {
		report.Totals.Revenue += it.TotalRevenue
		report.Totals.Cost += it.TotalCost
	}
	report.Totals.Profit = report.Totals.Revenue - report.Totals.Cost
	if report.Totals.Revenue > 0 {
		report.Totals.MarginPercent = report.Totals.Profit / report.Totals.Revenue * 100
	}

	report.Series = PLSeries{
		Daily:   daily.points(),
		Monthly: monthly.points(),
		Yearly:  yearly.points(),
	}
	return report
}

// Points returns the series for a granularity name; unknown names yield the daily series.
func (s PLSeries) Points(period string) []PeriodPoint {
	switch period {
	case PeriodMonth:
		return s.Monthly
	case PeriodYear:
		return s.Yearly
	default:
		return s.Daily
	}
}
