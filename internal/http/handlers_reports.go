package http

import (
	"bytes"
	"net/http"

	"billbook/internal/export"
	applog "billbook/internal/log"
)

func (s *Server) handleProfitLoss(w http.ResponseWriter, r *http.Request) {
	pl, err := s.deps.Reports.ProfitLoss(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponse().JSON(pl).Write(w)
}

func (s *Server) handleProfitLossCSV(w http.ResponseWriter, r *http.Request) {
	pl, err := s.deps.Reports.ProfitLoss(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteProfitLossCSV(&buf, pl); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed writing profit/loss CSV",
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err)
		InternalServerError("export failed").Write(w)
		return
	}
	NewResponse().
		Header("Content-Disposition", `attachment; filename="profit-loss.csv"`).
		Body("text/csv; charset=utf-8", buf.Bytes()).
		Write(w)
}
