package http

import (
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
)

// incomeView adds the display label and period to an income record.
type incomeView struct {
	core.IncomeRecord
	Label  string `json:"label"`
	Period string `json:"period"`
}

func newIncomeView(r core.IncomeRecord) incomeView {
	return incomeView{IncomeRecord: r, Label: r.Label(), Period: r.Date.Period()}
}

type instantiateResponse struct {
	ID            int64      `json:"id"`
	TemplateLabel string     `json:"template_label"`
	Message       string     `json:"message"`
	Record        incomeView `json:"record"`
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.svc.Incomes.ListSources(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(sources))
}

func (s *Server) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	src, err := s.svc.Incomes.CreateSource(r.Context(), req.toSource())
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, src)
}

// handleListIncomes lists non-template records unless is_template says
// otherwise.
func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	f, err := incomeFilterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	records, err := s.svc.Incomes.List(r.Context(), f)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	views := make([]incomeView, len(records))
	for i, rec := range records {
		views[i] = newIncomeView(rec)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	rec, err := s.svc.Incomes.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, newIncomeView(rec))
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	s.saveIncome(w, r, 0, http.StatusCreated)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	s.saveIncome(w, r, id, http.StatusOK)
}

func (s *Server) saveIncome(w http.ResponseWriter, r *http.Request, id int64, status int) {
	op := log.OpCreate
	if id != 0 {
		op = log.OpUpdate
	}

	var req incomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, op, err)
		return
	}
	rec, err := req.toRecord()
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	rec.ID = id

	saved, err := s.svc.Incomes.Save(r.Context(), rec)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, status, newIncomeView(saved))
}

func (s *Server) handleGenerateFromTemplate(w http.ResponseWriter, r *http.Request) {
	var req instantiateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpInstantiate, err)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, log.OpInstantiate, core.NewValidationError("date", "%v", err))
		return
	}
	rate, err := req.ExchangeRate.optional("exchange_rate")
	if err != nil {
		writeError(w, r, log.OpInstantiate, err)
		return
	}

	res, err := s.svc.Templates.Instantiate(r.Context(), services.InstantiateRequest{
		TemplateID:   req.TemplateID,
		Date:         date,
		ExchangeRate: rate,
	})
	if err != nil {
		writeError(w, r, log.OpInstantiate, err)
		return
	}
	writeJSON(w, http.StatusCreated, instantiateResponse{
		ID:            res.ID,
		TemplateLabel: res.TemplateLabel,
		Message:       res.Message,
		Record:        newIncomeView(res.Record),
	})
}

// orEmpty keeps empty lists encoding as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
