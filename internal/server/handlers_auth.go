package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ZackMurry/cardtown-sub000/internal/audit"
	"github.com/ZackMurry/cardtown-sub000/internal/auth"
	"github.com/ZackMurry/cardtown-sub000/internal/crypto"
	"github.com/ZackMurry/cardtown-sub000/internal/digest"
	"github.com/ZackMurry/cardtown-sub000/internal/keyvault"
	"github.com/ZackMurry/cardtown-sub000/internal/team"
)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req signupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if !isValidEmail(req.Email) {
		http.Error(w, "valid email required", http.StatusBadRequest)
		return
	}
	if req.FirstName == "" {
		http.Error(w, "first name required", http.StatusBadRequest)
		return
	}
	if err := validatePassword(req.Password); err != nil {
		http.Error(w, "weak password: "+err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(auth.DefaultArgon, req.Password)
	if err != nil {
		s.httpError(w, err)
		return
	}

	// The personal key exists in plaintext only between these two lines
	// and inside later request handling; storage sees the wrapped form.
	derived := digest.SumString(req.Password)
	defer crypto.Zero(derived)
	personal, wrapped, err := keyvault.Create(derived)
	if err != nil {
		s.httpError(w, err)
		return
	}
	crypto.Zero(personal)

	if err := s.creds.Add(r.Context(), &auth.Account{
		ID:         uuid.New(),
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		PassHash:   hash,
		WrappedKey: wrapped,
		Roles:      []auth.Role{auth.RoleUser},
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		s.httpError(w, err)
		return
	}
	s.audit.Record(audit.EventSignup, req.Email)

	tok, exp, err := s.builder.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.httpError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, tokenResp{Token: tok, ExpiresAt: exp})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.rlLoginIP.allow(getClientIP(r)) {
		tooMany(w, 60)
		return
	}
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if !s.rlLoginID.allow(req.Email) {
		tooMany(w, 60)
		return
	}

	tok, exp, err := s.builder.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.logger.Printf("login rejected for %s: %v", req.Email, err)
		s.httpError(w, err)
		return
	}
	s.audit.Record(audit.EventLogin, req.Email)
	writeJSON(w, tokenResp{Token: tok, ExpiresAt: exp})
}

// handleSession returns the profile of the per-request principal. Its real
// purpose is observability: it proves the stateless reconstruction path
// end to end without touching any entity.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p, err := auth.MustPrincipal(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}
	resp := sessionResp{
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		OnTeam:    p.OnTeam(),
	}
	if p.OnTeam() {
		resp.TeamID = p.TeamID.String()
		t, err := s.teams.Find(r.Context(), p.TeamID)
		if err != nil {
			s.httpError(w, err)
			return
		}
		if err := team.DecryptTeam(t, p.ActiveKey()); err != nil {
			s.httpError(w, err)
			return
		}
		resp.TeamName = t.Name
	}
	writeJSON(w, resp)
}

// handleTokenRefresh re-mints the caller's token, typically right after a
// team join so the next request's reconstruction picks up the membership.
func (s *Server) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	tok, exp, err := s.builder.Reissue(r.Context(), strings.TrimPrefix(h, "Bearer "))
	if err != nil {
		s.httpError(w, err)
		return
	}
	if p, perr := auth.MustPrincipal(r); perr == nil {
		s.audit.Record(audit.EventTokenReissue, p.Email)
	}
	writeJSON(w, tokenResp{Token: tok, ExpiresAt: exp})
}
