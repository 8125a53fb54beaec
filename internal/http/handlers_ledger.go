package http

import (
	"net/http"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
	applog "finanzas/internal/log"
)

func (s *Server) handleListInstallments(w http.ResponseWriter, r *http.Request) {
	items, err := s.ledger.ListInstallments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []core.InstallmentExpense{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateInstallment(w http.ResponseWriter, r *http.Request) {
	var req installmentRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := req.toRecord(s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateInstallment(r.Context(), rec)
	if err != nil {
		applog.LogRecordError(r.Context(), "Create installment failed", err, applog.OpCreate, ledger.KindInstallment, 0)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.ledger.GetInstallment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req installmentPatchRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.ledger.UpdateInstallment(r.Context(), id, patch)
	if err != nil {
		applog.LogRecordError(r.Context(), "Update installment failed", err, applog.OpUpdate, ledger.KindInstallment, id)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteInstallment(r.Context(), id); err != nil {
		applog.LogRecordError(r.Context(), "Delete installment failed", err, applog.OpDelete, ledger.KindInstallment, id)
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListFixed(w http.ResponseWriter, r *http.Request) {
	items, err := s.ledger.ListFixed(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []core.FixedExpense{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateFixed(w http.ResponseWriter, r *http.Request) {
	var req fixedRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := req.toRecord()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateFixed(r.Context(), rec)
	if err != nil {
		applog.LogRecordError(r.Context(), "Create fixed expense failed", err, applog.OpCreate, ledger.KindFixed, 0)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetFixed(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.ledger.GetFixed(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateFixed(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req fixedPatchRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.ledger.UpdateFixed(r.Context(), id, patch)
	if err != nil {
		applog.LogRecordError(r.Context(), "Update fixed expense failed", err, applog.OpUpdate, ledger.KindFixed, id)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteFixed(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteFixed(r.Context(), id); err != nil {
		applog.LogRecordError(r.Context(), "Delete fixed expense failed", err, applog.OpDelete, ledger.KindFixed, id)
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req overrideRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	month, err := core.ParseYearMonth(req.Month)
	if err != nil {
		writeError(w, r, core.Invalid("month", core.ErrInvalidMonth))
		return
	}
	updated, err := s.ledger.SetOverride(r.Context(), id, month, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	month, err := core.ParseYearMonth(r.PathValue("month"))
	if err != nil {
		writeError(w, r, core.Invalid("month", core.ErrInvalidMonth))
		return
	}
	updated, err := s.ledger.ClearOverride(r.Context(), id, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
