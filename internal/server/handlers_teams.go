package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ZackMurry/cardtown-sub000/internal/audit"
	"github.com/ZackMurry/cardtown-sub000/internal/auth"
)

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p, err := auth.MustPrincipal(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}
	var req teamCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "team name required", http.StatusBadRequest)
		return
	}

	// ActiveKey here is necessarily the personal key: Create rejects
	// callers who already belong to a team.
	t, inviteKey, err := s.teams.Create(r.Context(), p.ID, p.ActiveKey(), req.Name)
	if err != nil {
		s.httpError(w, err)
		return
	}
	s.audit.Record(audit.EventTeamCreate, p.Email)
	writeJSONStatus(w, http.StatusCreated, teamCreateResp{
		ID:        t.ID.String(),
		Name:      req.Name,
		InviteKey: inviteKey,
	})
}

func (s *Server) handleTeamByID(w http.ResponseWriter, r *http.Request) {
	id, tail, ok := pathID(r.URL.Path, "/api/teams/")
	if !ok || tail != "join" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	p, err := auth.MustPrincipal(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}
	var req teamJoinReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	if _, err := s.teams.Join(r.Context(), p.ID, p.ActiveKey(), id, req.InviteKey); err != nil {
		s.httpError(w, err)
		return
	}
	s.audit.Record(audit.EventTeamJoin, p.Email)

	// The current token still reconstructs a pre-join principal, so hand
	// back a fresh one that will resolve the new membership.
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		tok, exp, err := s.builder.Reissue(r.Context(), strings.TrimPrefix(h, "Bearer "))
		if err == nil {
			writeJSON(w, tokenResp{Token: tok, ExpiresAt: exp})
			return
		}
		s.logger.Printf("token reissue after join failed for %s: %v", p.Email, err)
	}
	w.WriteHeader(http.StatusNoContent)
}
