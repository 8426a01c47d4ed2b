package http

import (
	"net/http"
	"time"

	"gofinances/internal/auth"
	"gofinances/internal/core"
	"gofinances/internal/format"
	"gofinances/internal/services"
)

func currentUser(r *http.Request) core.User {
	u, _ := r.Context().Value(userContextKey{}).(core.User)
	return u
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	google := s.session.Google()
	if google == nil {
		writeError(w, r, http.StatusServiceUnavailable, "google sign-in not configured")
		return
	}
	http.Redirect(w, r, google.AuthCodeURL(s.oauthState), http.StatusTemporaryRedirect)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("state") != s.oauthState {
		writeError(w, r, http.StatusBadRequest, "invalid oauth state")
		return
	}
	code := r.FormValue("code")
	if code == "" {
		writeError(w, r, http.StatusBadRequest, "missing code")
		return
	}
	user, err := s.session.SignInWithGoogle(r.Context(), code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type googleTokenRequest struct {
	AccessToken string `json:"access_token"`
}

func (s *Server) handleGoogleToken(w http.ResponseWriter, r *http.Request) {
	var req googleTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.session.SignInWithGoogleToken(r.Context(), req.AccessToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleAppleSignIn(w http.ResponseWriter, r *http.Request) {
	var cred auth.AppleCredential
	if err := decodeJSON(w, r, &cred); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.session.SignInWithApple(r.Context(), cred)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.session.SignOut(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

type dashboardResponse struct {
	Transactions []core.DisplayTransaction `json:"transactions"`
	Highlights   core.Highlights           `json:"highlights"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.loader.Load(r.Context(), currentUser(r).ID, services.ViewDashboard, s.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		Transactions: summary.Transactions,
		Highlights:   summary.Highlights,
	})
}

type monthRef struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func monthRefOf(t time.Time) monthRef {
	return monthRef{Year: t.Year(), Month: int(t.Month())}
}

type resumeResponse struct {
	core.MonthOverview
	Previous monthRef `json:"previous"`
	Next     monthRef `json:"next"`
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	ref, err := parseYearMonth(r, s.now(), s.transactions.Location())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := s.loader.Load(r.Context(), currentUser(r).ID, services.ViewResume, ref)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resumeResponse{
		MonthOverview: summary.Overview,
		Previous:      monthRefOf(format.AddMonths(ref, -1)),
		Next:          monthRefOf(format.AddMonths(ref, 1)),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := decodeJSON(w, r, &tx); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	tx.ID = ""
	tx.Name = sanitizeInput(tx.Name)

	saved, err := s.transactions.Create(r.Context(), currentUser(r).ID, tx)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// handleImportTransactions replaces the user's list with the posted array.
func (s *Server) handleImportTransactions(w http.ResponseWriter, r *http.Request) {
	var list []core.Transaction
	if err := decodeJSON(w, r, &list); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	for i := range list {
		list[i].Name = sanitizeInput(list[i].Name)
	}

	saved, err := s.transactions.Import(r.Context(), currentUser(r).ID, list)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.Clear(r.Context(), currentUser(r).ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
