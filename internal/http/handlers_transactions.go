package http

import (
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
)

func (s *Server) handleListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := s.svc.Transactions.ListBanks(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(banks))
}

func (s *Server) handleCreateBank(w http.ResponseWriter, r *http.Request) {
	var req bankRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	bank, err := s.svc.Transactions.CreateBank(r.Context(), core.Bank{
		Name:     sanitizeInput(req.Name),
		Currency: core.Currency(req.Currency),
	})
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, bank)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := transactionFilterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	txs, err := s.svc.Transactions.List(r.Context(), f)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	tx, err := s.svc.Transactions.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	s.saveTransaction(w, r, 0, http.StatusCreated)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	s.saveTransaction(w, r, id, http.StatusOK)
}

// saveTransaction stores the request; the service signs the amount from the
// type and stamps today's date.
func (s *Server) saveTransaction(w http.ResponseWriter, r *http.Request, id int64, status int) {
	op := log.OpCreate
	if id != 0 {
		op = log.OpUpdate
	}

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, op, err)
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	tx.ID = id

	saved, err := s.svc.Transactions.Save(r.Context(), tx)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, status, saved)
}
