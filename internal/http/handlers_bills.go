package http

import (
	"bytes"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"billbook/internal/core"
	"billbook/internal/export"
	applog "billbook/internal/log"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// billView is the API shape of a bill with its derived totals.
type billView struct {
	Bill      core.Bill          `json:"bill"`
	Totals    core.Totals        `json:"totals"`
	GSTNotice bool               `json:"gstNotice"`
	Share     *export.ShareLinks `json:"share,omitempty"`
}

func (s *Server) newBillView(b core.Bill, t core.Totals, withShare bool) billView {
	v := billView{Bill: b, Totals: t, GSTNotice: t.GSTNotice()}
	if withShare {
		links := export.NewShareLinks(b, t, s.deps.Formatter, s.deps.PublicURL)
		v.Share = &links
	}
	return v
}

func (s *Server) handlePreviewBill(w http.ResponseWriter, r *http.Request) {
	b, err := ParseBill(r)
	if err != nil {
		respondBadBody(w, err)
		return
	}
	b, t := s.deps.Bills.Preview(b)
	NewResponse().JSON(s.newBillView(b, t, false)).Write(w)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	b, err := ParseBill(r)
	if err != nil {
		respondBadBody(w, err)
		return
	}

	saved, t, err := s.deps.Bills.CreateBill(r.Context(), userID(r), b)
	if err != nil {
		respondError(w, r, err)
		return
	}

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/bills/"+saved.ID).
		TriggerBillSaved(saved.ID, saved.BillNumber).
		TriggerReportRefresh().
		TriggerSuccessNotification("Bill " + saved.BillNumber + " saved").
		JSON(s.newBillView(saved, t, true)).
		Write(w)
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	limit := ParseLimit(r.URL.Query(), defaultListLimit, maxListLimit)
	bills, err := s.deps.Bills.ListBills(r.Context(), userID(r), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views := make([]billView, 0, len(bills))
	for _, b := range bills {
		views = append(views, s.newBillView(b, b.Totals(), false))
	}
	NewResponse().JSON(map[string]any{"bills": views, "count": len(views)}).Write(w)
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Bills.GetBill(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponse().JSON(s.newBillView(b, b.Totals(), true)).Write(w)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.Bills.DeleteBill(r.Context(), userID(r), id); err != nil {
		respondError(w, r, err)
		return
	}
	NewResponse().
		Status(http.StatusNoContent).
		TriggerBillDeleted(id).
		TriggerReportRefresh().
		Write(w)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	status, err := ParseStatus(r)
	if err != nil {
		respondBadBody(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	st, err := s.deps.Bills.UpdateStatus(r.Context(), userID(r), id, status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponse().
		TriggerReportRefresh().
		JSON(map[string]string{"id": id, "status": st.String()}).
		Write(w)
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (s *Server) handleBillCSV(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Bills.GetBill(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBillCSV(&buf, b, b.Totals()); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed writing bill CSV",
			applog.FieldBillID, b.ID,
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err)
		InternalServerError("export failed").Write(w)
		return
	}

	name := unsafeFilename.ReplaceAllString(b.BillNumber, "_")
	NewResponse().
		Header("Content-Disposition", `attachment; filename="bill-`+name+`.csv"`).
		Body("text/csv; charset=utf-8", buf.Bytes()).
		Write(w)
}
