// Package export serialises bills and profit/loss reports for download and
// builds the share links shown on a bill.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"billbook/internal/core"
)

const csvBufferSize = 32 * 1024

type csvWriter struct {
	buf *bufio.Writer
	csv *csv.Writer
	err error
}

func newCSVWriter(w io.Writer) *csvWriter {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	return &csvWriter{buf: buf, csv: csv.NewWriter(buf)}
}

// row writes one record; the first error sticks and later rows are skipped.
func (c *csvWriter) row(fields ...string) {
	if c.err != nil {
		return
	}
	c.err = c.csv.Write(fields)
}

func (c *csvWriter) close() error {
	if c.err != nil {
		return c.err
	}
	c.csv.Flush()
	if err := c.csv.Error(); err != nil {
		return err
	}
	return c.buf.Flush()
}

// text neutralises user input that a spreadsheet would evaluate as a formula.
func text(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func amount(v float64) string {
	return strconv.FormatFloat(core.Round2(v), 'f', 2, 64)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteBillCSV writes a header block, one row per item and the totals.
func WriteBillCSV(w io.Writer, b core.Bill, t core.Totals) error {
	c := newCSVWriter(w)

	c.row("Bill Number", text(b.BillNumber))
	c.row("Date", b.Date.String())
	c.row("Status", b.Status.String())
	c.row("Seller", text(b.SellerName), text(b.SellerAddress), text(b.SellerShopNumber), text(b.SellerOwnerNumber))
	c.row("Client", text(b.ClientName), text(b.ClientAddress), text(b.ClientPhone), text(b.ClientEmail))
	c.row("Currency", text(b.Currency))

	c.row("Item", "Quantity", "Rate", "Amount")
	for _, l := range t.Lines {
		c.row(text(l.ItemName), number(l.Quantity), amount(l.Rate), amount(l.Amount))
	}

	c.row("Subtotal", "", "", amount(t.Subtotal))
	c.row("Discount %", "", "", number(t.Discount))
	c.row("Discount", "", "", amount(t.DiscountAmount))
	c.row("Total", "", "", amount(t.Total))

	if err := c.close(); err != nil {
		return fmt.Errorf("write bill csv: %w", err)
	}
	return nil
}

// WriteProfitLossCSV writes the per-item ledger, the report totals and the
// day, month and year series.
func WriteProfitLossCSV(w io.Writer, pl core.ProfitLoss) error {
	c := newCSVWriter(w)

	c.row("Item", "Currency", "Quantity", "Revenue", "Cost", "Profit")
	for _, it := range pl.PerItem {
		c.row(text(it.ItemName), text(it.Currency), number(it.Quantity),
			amount(it.TotalRevenue), amount(it.TotalCost), amount(it.TotalProfit))
	}
	c.row("Total", text(pl.Currency), "", amount(pl.Totals.Revenue), amount(pl.Totals.Cost), amount(pl.Totals.Profit))
	c.row("Margin %", "", "", "", "", amount(pl.Totals.MarginPercent))

	c.row("Series", "Period", "Label", "Net", "Profit", "Loss")
	for _, period := range []string{core.PeriodDay, core.PeriodMonth, core.PeriodYear} {
		for _, p := range pl.Series.Points(period) {
			c.row(period, p.Period, p.Label, amount(p.Net), amount(p.Profit), amount(p.Loss))
		}
	}

	if err := c.close(); err != nil {
		return fmt.Errorf("write profit/loss csv: %w", err)
	}
	return nil
}
