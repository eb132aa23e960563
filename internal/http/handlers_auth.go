package http

import (
	"errors"
	"net/http"
	"net/url"

	gauth "spendtrack/internal/auth/google"
)

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusInternalServerError, "Google OAuth is not configured")
		return
	}
	http.Redirect(w, r, s.auth.LoginURL(generateRequestID()), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusInternalServerError, "Google OAuth is not configured")
		return
	}
	if errStr := r.URL.Query().Get("error"); errStr != "" {
		writeError(w, http.StatusBadRequest, "OAuth error: "+errStr)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	user, err := s.auth.HandleCallback(r.Context(), code)
	if err != nil {
		if errors.Is(err, gauth.ErrNoEmail) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, r, err)
		return
	}

	params := url.Values{}
	params.Set("access_token", user.Token)
	params.Set("name", user.Name)
	params.Set("email", user.Email)
	params.Set("picture", user.Picture)
	params.Set("google_id", user.GoogleID)
	http.Redirect(w, r, s.frontendURL+"?"+params.Encode(), http.StatusFound)
}

// handleGoogleCredential verifies a Google ID token posted by the one-tap
// flow and responds with the owner token and profile at the top level.
func (s *Server) handleGoogleCredential(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusInternalServerError, "Google OAuth is not configured")
		return
	}

	body := parsePayload(r)
	credential, _ := body.str("credential")
	if credential == "" {
		writeError(w, http.StatusNotFound, "missing creds")
		return
	}

	ident, err := s.auth.VerifyCredential(r.Context(), credential)
	if err != nil {
		if errors.Is(err, gauth.ErrNoEmail) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, r, err)
		return
	}

	user, err := s.auth.EnsureUser(r.Context(), ident)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"token":   user.Token,
		"name":    user.Name,
		"email":   user.Email,
		"avatar":  user.Picture,
	})
}

// handleLoginFinalize upserts a user from identity fields the frontend
// already obtained from Google, returning the stable owner token.
func (s *Server) handleLoginFinalize(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusInternalServerError, "Google OAuth is not configured")
		return
	}

	body := parsePayload(r)
	googleID, _ := body.str("google_id")
	name, _ := body.str("name")
	email, _ := body.str("email")
	picture, _ := body.str("picture")
	if googleID == "" || name == "" || email == "" || picture == "" {
		writeError(w, http.StatusBadRequest, "missing login details")
		return
	}

	user, err := s.auth.EnsureUser(r.Context(), gauth.Identity{
		GoogleID: googleID,
		Name:     name,
		Email:    email,
		Picture:  picture,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"access_token": user.Token,
		"name":         user.Name,
		"email":        user.Email,
		"picture":      user.Picture,
	})
}
