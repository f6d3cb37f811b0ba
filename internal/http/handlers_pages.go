package http

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"billbook/internal/core"
	"billbook/internal/export"
	applog "billbook/internal/log"
)

const recentBillsOnIndex = 20

type billRow struct {
	Bill   core.Bill
	Totals core.Totals
}

type indexPage struct {
	Today string
	Bills []billRow
}

type billPage struct {
	Bill      core.Bill
	Totals    core.Totals
	GSTNotice bool
	Share     export.ShareLinks
}

type profitLossPage struct {
	Report core.ProfitLoss
	Daily  []core.PeriodPoint
	Month  []core.PeriodPoint
	Year   []core.PeriodPoint
}

// render executes a template into a buffer so a failure can still produce a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			"template", name,
			applog.FieldOperation, applog.OpRender,
			applog.FieldError, err)
		InternalServerError("render failed").Write(w)
		return
	}
	NewResponse().Body("text/html; charset=utf-8", buf.Bytes()).Write(w)
}

func (s *Server) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	bills, err := s.deps.Bills.ListBills(r.Context(), userID(r), recentBillsOnIndex)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rows := make([]billRow, 0, len(bills))
	for _, b := range bills {
		rows = append(rows, billRow{Bill: b, Totals: b.Totals()})
	}
	s.render(w, r, "index.html", indexPage{
		Today: core.Date{Time: s.now()}.String(),
		Bills: rows,
	})
}

func (s *Server) handleBillPage(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Bills.GetBill(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	t := b.Totals()
	s.render(w, r, "bill.html", billPage{
		Bill:      b,
		Totals:    t,
		GSTNotice: t.GSTNotice(),
		Share:     export.NewShareLinks(b, t, s.deps.Formatter, s.deps.PublicURL),
	})
}

func (s *Server) handleProfitLossPage(w http.ResponseWriter, r *http.Request) {
	pl, err := s.deps.Reports.ProfitLoss(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.render(w, r, "profit_loss.html", profitLossPage{
		Report: pl,
		Daily:  pl.Series.Points(core.PeriodDay),
		Month:  pl.Series.Points(core.PeriodMonth),
		Year:   pl.Series.Points(core.PeriodYear),
	})
}
