package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ZackMurry/cardtown-sub000/internal/entity"
)

// MemoryEntityStore backs tests and the dev server.
type MemoryEntityStore struct {
	mu        sync.RWMutex
	cards     map[uuid.UUID]entity.Card
	arguments map[uuid.UUID]entity.Argument
	analytics map[uuid.UUID]entity.Analytic
}

func NewMemoryEntityStore() *MemoryEntityStore {
	return &MemoryEntityStore{
		cards:     map[uuid.UUID]entity.Card{},
		arguments: map[uuid.UUID]entity.Argument{},
		analytics: map[uuid.UUID]entity.Analytic{},
	}
}

func (s *MemoryEntityStore) PutCard(_ context.Context, c *entity.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[c.ID] = *c
	return nil
}

func (s *MemoryEntityStore) GetCard(_ context.Context, id uuid.UUID) (*entity.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cards[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryEntityStore) ListCardsByOwner(_ context.Context, ownerID uuid.UUID) ([]entity.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entity.Card
	for _, c := range s.cards {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryEntityStore) DeleteCard(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[id]; !ok {
		return ErrNotFound
	}
	delete(s.cards, id)
	return nil
}

// Cards returns a snapshot of every stored card, so tests can inspect
// what actually reached the storage layer.
func (s *MemoryEntityStore) Cards() []entity.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Card, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, c)
	}
	return out
}

func (s *MemoryEntityStore) PutArgument(_ context.Context, a *entity.Argument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *a
	clone.CardIDs = append([]uuid.UUID(nil), a.CardIDs...)
	s.arguments[a.ID] = clone
	return nil
}

func (s *MemoryEntityStore) GetArgument(_ context.Context, id uuid.UUID) (*entity.Argument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.arguments[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := a
	clone.CardIDs = append([]uuid.UUID(nil), a.CardIDs...)
	return &clone, nil
}

func (s *MemoryEntityStore) ListArgumentsByOwner(_ context.Context, ownerID uuid.UUID) ([]entity.Argument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entity.Argument
	for _, a := range s.arguments {
		if a.OwnerID == ownerID {
			clone := a
			clone.CardIDs = append([]uuid.UUID(nil), a.CardIDs...)
			out = append(out, clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryEntityStore) DeleteArgument(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.arguments[id]; !ok {
		return ErrNotFound
	}
	delete(s.arguments, id)
	for aid, an := range s.analytics {
		if an.ArgumentID == id {
			delete(s.analytics, aid)
		}
	}
	return nil
}

func (s *MemoryEntityStore) PutAnalytic(_ context.Context, a *entity.Analytic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analytics[a.ID] = *a
	return nil
}

func (s *MemoryEntityStore) ListAnalyticsByArgument(_ context.Context, argumentID uuid.UUID) ([]entity.Analytic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entity.Analytic
	for _, a := range s.analytics {
		if a.ArgumentID == argumentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *MemoryEntityStore) DeleteAnalytic(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.analytics[id]; !ok {
		return ErrNotFound
	}
	delete(s.analytics, id)
	return nil
}
