package http

import (
	"net/http"
	"strings"

	"finanzas/internal/core"
	applog "finanzas/internal/log"
	"finanzas/internal/services"
)

type people struct {
	A string `json:"A"`
	B string `json:"B"`
}

func (s *Server) people() people {
	return people{A: s.opts.PersonAName, B: s.opts.PersonBName}
}

type projectionResponse struct {
	services.Report
	People people `json:"people"`
}

// handleProjection serves GET /api/projection?as_of=YYYY-MM-DD&horizon=N&closing_day=D.
func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	asOf := dateOnly(s.now())
	if raw := strings.TrimSpace(r.URL.Query().Get("as_of")); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			writeError(w, r, core.Invalid("as_of", core.ErrInvalidDay))
			return
		}
		asOf = d.Time
	}
	horizon, err := queryInt(r, "horizon", s.opts.Horizon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	closingDay, err := queryInt(r, "closing_day", s.opts.ClosingDay)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.projector.Report(r.Context(), asOf, closingDay, horizon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectionResponse{Report: report, People: s.people()})
}

type balancesResponse struct {
	services.Balances
	People people `json:"people"`
}

// handleBalances serves GET /api/balances?month=YYYY-MM, defaulting to the
// current month. Installments are charged from the current billing start.
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	month := core.MonthOf(s.now())
	if raw := strings.TrimSpace(r.URL.Query().Get("month")); raw != "" {
		m, err := core.ParseYearMonth(raw)
		if err != nil {
			writeError(w, r, core.Invalid("month", core.ErrInvalidMonth))
			return
		}
		month = m
	}
	balances, err := s.projector.BalancesFor(r.Context(), s.now(), s.opts.ClosingDay, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balancesResponse{Balances: balances, People: s.people()})
}

type settlementResponse struct {
	services.SettlementResult
	Count int `json:"count"`
}

// handleSettle runs the monthly settlement for the given date, or today.
func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	today := s.now()
	if req.Date != "" {
		d, err := core.ParseDate(req.Date)
		if err != nil {
			writeError(w, r, core.Invalid("date", core.ErrInvalidDay))
			return
		}
		today = d.Time
	}

	res, err := s.settler.SettleCurrentMonth(r.Context(), today, s.opts.ClosingDay)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Settlement stopped",
			applog.FieldMonth, res.Month.String(),
			"settled", res.Count(),
			applog.FieldError, err.Error())
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settlementResponse{SettlementResult: res, Count: res.Count()})
}

type formatResponse struct {
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

// handleFormat parses a display amount and renders it back.
func handleFormat(w http.ResponseWriter, r *http.Request) {
	v := core.ParseAmount(r.URL.Query().Get("amount"))
	writeJSON(w, http.StatusOK, formatResponse{Value: v, Text: core.FormatAmount(v)})
}
