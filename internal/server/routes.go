package server

import "net/http"

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/health", s.handleHealth)

	s.mux.HandleFunc("/api/signup", s.handleSignup)
	s.mux.HandleFunc("/api/login", s.handleLogin)

	s.mux.HandleFunc("/api/session", s.handleSession)
	s.mux.HandleFunc("/api/token/refresh", s.handleTokenRefresh)

	s.mux.HandleFunc("/api/teams", s.handleTeams)
	s.mux.HandleFunc("/api/teams/", s.handleTeamByID)

	s.mux.HandleFunc("/api/cards", s.handleCards)
	s.mux.HandleFunc("/api/cards/", s.handleCardByID)

	s.mux.HandleFunc("/api/arguments", s.handleArguments)
	s.mux.HandleFunc("/api/arguments/", s.handleArgumentSubtree)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
