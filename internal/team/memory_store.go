package team

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps teams and memberships in maps. Used by tests and by
// the dev server when no Mongo URI is configured.
type MemoryStore struct {
	mu          sync.RWMutex
	teams       map[uuid.UUID]*Team
	memberships map[uuid.UUID]*Membership // keyed by user id; one team per user
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams:       map[uuid.UUID]*Team{},
		memberships: map[uuid.UUID]*Membership{},
	}
}

func (s *MemoryStore) InsertTeam(_ context.Context, t *Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *t
	s.teams[t.ID] = &clone
	return nil
}

func (s *MemoryStore) FindTeam(_ context.Context, id uuid.UUID) (*Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return nil, ErrTeamNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *MemoryStore) InsertMembership(_ context.Context, m *Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.memberships[m.UserID]; exists {
		return ErrAlreadyMember
	}
	clone := *m
	s.memberships[m.UserID] = &clone
	return nil
}

func (s *MemoryStore) FindMembershipByUser(_ context.Context, userID uuid.UUID) (*Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[userID]
	if !ok {
		return nil, ErrNotMember
	}
	clone := *m
	return &clone, nil
}

func (s *MemoryStore) ListMemberships(_ context.Context, teamID uuid.UUID) ([]Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Membership
	for _, m := range s.memberships {
		if m.TeamID == teamID {
			out = append(out, *m)
		}
	}
	return out, nil
}
