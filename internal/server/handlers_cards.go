package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ZackMurry/cardtown-sub000/internal/auth"
	"github.com/ZackMurry/cardtown-sub000/internal/entity"
)

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	p, err := auth.MustPrincipal(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}
	switch r.Method {
	case http.MethodGet:
		cards, err := s.entities.ListCardsByOwner(r.Context(), contentOwner(p))
		if err != nil {
			s.httpError(w, err)
			return
		}
		for i := range cards {
			if err := entity.DecryptCard(&cards[i], p.ActiveKey()); err != nil {
				s.httpError(w, err)
				return
			}
		}
		if cards == nil {
			cards = []entity.Card{}
		}
		writeJSON(w, cards)
	case http.MethodPost:
		var req cardReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		now := time.Now().UTC()
		c := entity.Card{
			ID:              uuid.New(),
			OwnerID:         contentOwner(p),
			Tag:             req.Tag,
			Cite:            req.Cite,
			CiteInformation: req.CiteInformation,
			BodyHTML:        req.BodyHTML,
			BodyDraft:       req.BodyDraft,
			BodyText:        req.BodyText,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := entity.EncryptCard(&c, p.ActiveKey()); err != nil {
			s.httpError(w, err)
			return
		}
		if err := s.entities.PutCard(r.Context(), &c); err != nil {
			s.httpError(w, err)
			return
		}
		writeJSONStatus(w, http.StatusCreated, map[string]string{"id": c.ID.String()})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCardByID(w http.ResponseWriter, r *http.Request) {
	p, err := auth.MustPrincipal(r)
	if err != nil {
		http.Error(w, "no auth context", http.StatusUnauthorized)
		return
	}
	id, tail, ok := pathID(r.URL.Path, "/api/cards/")
	if !ok || tail != "" {
		http.NotFound(w, r)
		return
	}

	c, err := s.entities.GetCard(r.Context(), id)
	if err != nil {
		s.httpError(w, err)
		return
	}
	if c.OwnerID != contentOwner(p) {
		// Same response as absent: ownership is not probeable.
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		if err := entity.DecryptCard(c, p.ActiveKey()); err != nil {
			s.httpError(w, err)
			return
		}
		writeJSON(w, c)
	case http.MethodPut:
		var req cardReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		upd := entity.Card{
			ID:              c.ID,
			OwnerID:         c.OwnerID,
			Tag:             req.Tag,
			Cite:            req.Cite,
			CiteInformation: req.CiteInformation,
			BodyHTML:        req.BodyHTML,
			BodyDraft:       req.BodyDraft,
			BodyText:        req.BodyText,
			CreatedAt:       c.CreatedAt,
			UpdatedAt:       time.Now().UTC(),
		}
		if err := entity.EncryptCard(&upd, p.ActiveKey()); err != nil {
			s.httpError(w, err)
			return
		}
		if err := s.entities.PutCard(r.Context(), &upd); err != nil {
			s.httpError(w, err)
			return
		}
		writeJSON(w, map[string]bool{"updated": true})
	case http.MethodDelete:
		if err := s.entities.DeleteCard(r.Context(), id); err != nil {
			s.httpError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
