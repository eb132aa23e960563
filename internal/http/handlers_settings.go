package http

import (
	"net/http"
)

func (s *Server) handleSettingsSave(w http.ResponseWriter, r *http.Request) {
	body := parsePayload(r)
	token := body.token(r)
	if !requireToken(w, token) {
		return
	}

	if err := s.ledger.SaveSettings(r.Context(), body.settings(token)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Settings updated successfully", nil)
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if !requireToken(w, token) {
		return
	}

	settings, _, err := s.ledger.GetSettings(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// A missing record serves the defaulted shape: null income/budget and
	// all-false notification flags.
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: settings})
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	body := parsePayload(r)
	token := body.token(r)
	if !requireToken(w, token) {
		return
	}

	var name, avatar, email *string
	if s2, ok := body.str("name"); ok {
		name = &s2
	}
	if s2, ok := body.str("avatar"); ok {
		avatar = &s2
	}
	if s2, ok := body.str("email"); ok {
		email = &s2
	}
	if name == nil && avatar == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	profile, err := s.ledger.UpdateProfile(r.Context(), token, name, avatar, email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Profile updated", profile)
}

func (s *Server) handleAdminReset(w http.ResponseWriter, r *http.Request) {
	body := parsePayload(r)
	token := body.token(r)
	if !requireToken(w, token) {
		return
	}

	counts, err := s.ledger.Reset(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User data reset", counts)
}
