package http

import (
	"net/http"

	"spendtrack/internal/core"
)

func (s *Server) handleSavingsAdd(w http.ResponseWriter, r *http.Request) {
	body := parsePayload(r)
	token := body.token(r)
	if !requireToken(w, token) {
		return
	}

	amount, ok := body.number("amount")
	if !ok {
		writeError(w, http.StatusBadRequest, "amount must be a number")
		return
	}
	note, _ := body.str("note")

	entry, err := s.ledger.AddSaving(r.Context(), token, amount, note)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Saving added", entry)
}

func (s *Server) handleSavingsUse(w http.ResponseWriter, r *http.Request) {
	body := parsePayload(r)
	token := body.token(r)
	if !requireToken(w, token) {
		return
	}

	amount, ok := body.number("amount")
	if !ok {
		writeError(w, http.StatusBadRequest, "amount must be a number")
		return
	}
	note, _ := body.str("note")
	category, _ := body.str("category")
	description, _ := body.str("description")

	entry, err := s.ledger.UseSaving(r.Context(), token, amount, note, category, description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Saving used and expense recorded", entry)
}

func (s *Server) handleSavingsGet(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if !requireToken(w, token) {
		return
	}

	entries, err := s.ledger.ListSavings(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.SavingEntry{}
	}
	writeSuccess(w, http.StatusOK, "Savings fetched", entries)
}

func (s *Server) handleSavingsSummary(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if !requireToken(w, token) {
		return
	}

	summary, err := s.reports.Savings(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Summary fetched", summary)
}
