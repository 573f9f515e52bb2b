package http

import (
	"net/http"

	"dompet/internal/core"
	"dompet/internal/log"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriodParam(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx := log.NewContext(r.Context(), log.FromContext(r.Context()).With(log.NewFields().WithPeriod(string(period)).ToSlice()...))
	d, err := s.deps.Dashboards.Dashboard(ctx, period)
	if err != nil {
		writeServiceError(w, r.WithContext(ctx), err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sum, err := s.deps.Dashboards.Summarize(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

type categoriesResponse struct {
	Income         []string      `json:"income"`
	Expense        []string      `json:"expense"`
	PaymentMethods []string      `json:"payment_methods"`
	Periods        []core.Period `json:"periods"`
}

func handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{
		Income:         core.IncomeCategories,
		Expense:        core.ExpenseCategories,
		PaymentMethods: core.PaymentMethods,
		Periods:        core.Periods(),
	})
}
