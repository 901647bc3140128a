package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ZackMurry/cardtown-sub000/internal/auth"
	"github.com/ZackMurry/cardtown-sub000/internal/entity"
)

func (s *Server) handleArguments(w http.ResponseWriter, r *http.Request) {
	p, err := auth.MustPrincipal(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}
	switch r.Method {
	case http.MethodGet:
		args, err := s.entities.ListArgumentsByOwner(r.Context(), contentOwner(p))
		if err != nil {
			s.httpError(w, err)
			return
		}
		for i := range args {
			if err := entity.DecryptArgument(&args[i], p.ActiveKey()); err != nil {
				s.httpError(w, err)
				return
			}
		}
		if args == nil {
			args = []entity.Argument{}
		}
		writeJSON(w, args)
	case http.MethodPost:
		var req argumentReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		cardIDs, err := parseUUIDs(req.CardIDs)
		if err != nil {
			http.Error(w, "bad card id", http.StatusBadRequest)
			return
		}
		now := time.Now().UTC()
		a := entity.Argument{
			ID:        uuid.New(),
			OwnerID:   contentOwner(p),
			Name:      req.Name,
			CardIDs:   cardIDs,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := entity.EncryptArgument(&a, p.ActiveKey()); err != nil {
			s.httpError(w, err)
			return
		}
		if err := s.entities.PutArgument(r.Context(), &a); err != nil {
			s.httpError(w, err)
			return
		}
		writeJSONStatus(w, http.StatusCreated, map[string]string{"id": a.ID.String()})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleArgumentSubtree serves /api/arguments/{id} and its nested
// analytics collection.
func (s *Server) handleArgumentSubtree(w http.ResponseWriter, r *http.Request) {
	p, err := auth.MustPrincipal(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}
	id, tail, ok := pathID(r.URL.Path, "/api/arguments/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	a, err := s.entities.GetArgument(r.Context(), id)
	if err != nil {
		s.httpError(w, err)
		return
	}
	if a.OwnerID != contentOwner(p) {
		http.NotFound(w, r)
		return
	}

	switch {
	case tail == "":
		s.handleArgumentByID(w, r, p, a)
	case tail == "analytics":
		s.handleAnalytics(w, r, p, a)
	case strings.HasPrefix(tail, "analytics/"):
		s.handleAnalyticByID(w, r, a, strings.TrimPrefix(tail, "analytics/"))
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleAnalyticByID(w http.ResponseWriter, r *http.Request, a *entity.Argument, rawID string) {
	aid, err := uuid.Parse(rawID)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// The analytic must belong to the argument whose ownership was already
	// checked; a foreign id gets the same 404 as an absent one.
	analytics, err := s.entities.ListAnalyticsByArgument(r.Context(), a.ID)
	if err != nil {
		s.httpError(w, err)
		return
	}
	owned := false
	for _, an := range analytics {
		if an.ID == aid {
			owned = true
			break
		}
	}
	if !owned {
		http.NotFound(w, r)
		return
	}
	if err := s.entities.DeleteAnalytic(r.Context(), aid); err != nil {
		s.httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleArgumentByID(w http.ResponseWriter, r *http.Request, p *auth.Principal, a *entity.Argument) {
	switch r.Method {
	case http.MethodGet:
		if err := entity.DecryptArgument(a, p.ActiveKey()); err != nil {
			s.httpError(w, err)
			return
		}
		analytics, err := s.entities.ListAnalyticsByArgument(r.Context(), a.ID)
		if err != nil {
			s.httpError(w, err)
			return
		}
		for i := range analytics {
			if err := entity.DecryptAnalytic(&analytics[i], p.ActiveKey()); err != nil {
				s.httpError(w, err)
				return
			}
		}
		if analytics == nil {
			analytics = []entity.Analytic{}
		}
		writeJSON(w, map[string]any{"argument": a, "analytics": analytics})
	case http.MethodPut:
		var req argumentReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		cardIDs, err := parseUUIDs(req.CardIDs)
		if err != nil {
			http.Error(w, "bad card id", http.StatusBadRequest)
			return
		}
		upd := entity.Argument{
			ID:        a.ID,
			OwnerID:   a.OwnerID,
			Name:      req.Name,
			CardIDs:   cardIDs,
			CreatedAt: a.CreatedAt,
			UpdatedAt: time.Now().UTC(),
		}
		if err := entity.EncryptArgument(&upd, p.ActiveKey()); err != nil {
			s.httpError(w, err)
			return
		}
		if err := s.entities.PutArgument(r.Context(), &upd); err != nil {
			s.httpError(w, err)
			return
		}
		writeJSON(w, map[string]bool{"updated": true})
	case http.MethodDelete:
		if err := s.entities.DeleteArgument(r.Context(), a.ID); err != nil {
			s.httpError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request, p *auth.Principal, a *entity.Argument) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req analyticReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	an := entity.Analytic{
		ID:         uuid.New(),
		ArgumentID: a.ID,
		Position:   req.Position,
		Body:       req.Body,
	}
	if err := entity.EncryptAnalytic(&an, p.ActiveKey()); err != nil {
		s.httpError(w, err)
		return
	}
	if err := s.entities.PutAnalytic(r.Context(), &an); err != nil {
		s.httpError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]string{"id": an.ID.String()})
}

func parseUUIDs(in []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(in))
	for i, raw := range in {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}
