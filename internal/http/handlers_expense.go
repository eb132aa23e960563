package http

import (
	"net/http"
	"strings"

	"spendtrack/internal/core"
)

func (s *Server) handleExpenseAdd(w http.ResponseWriter, r *http.Request) {
	body := parsePayload(r)
	token := body.token(r)
	if !requireToken(w, token) {
		return
	}

	in, err := body.expenseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.ledger.AddExpense(r.Context(), token, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Expense added", created)
}

func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if !requireToken(w, token) {
		return
	}

	items, err := s.ledger.ListExpenses(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []core.Expense{}
	}
	writeSuccess(w, http.StatusOK, "Expenses fetched", items)
}

func (s *Server) handleExpenseUpdate(w http.ResponseWriter, r *http.Request) {
	body := parsePayload(r)
	token := body.token(r)
	if !requireToken(w, token) {
		return
	}

	in, err := body.expenseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.ledger.UpdateExpense(r.Context(), token, r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Expense updated", updated)
}

func (s *Server) handleExpenseDelete(w http.ResponseWriter, r *http.Request) {
	// Token may arrive in the query string or a JSON body.
	token := parsePayload(r).token(r)
	if !requireToken(w, token) {
		return
	}

	if err := s.ledger.DeleteExpense(r.Context(), token, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Expense deleted", nil)
}

func (s *Server) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if !requireToken(w, token) {
		return
	}

	period := strings.ToLower(r.URL.Query().Get("period"))
	report, err := s.reports.Summary(r.Context(), token, period)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Summary fetched", report)
}
