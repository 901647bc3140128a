package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ZackMurry/cardtown-sub000/internal/keyvault"
)

type Role string

const (
	RoleUser     Role = "user"
	RoleOperator Role = "operator"
)

var (
	ErrAccountNotFound = errors.New("auth: account not found")
	ErrAccountExists   = errors.New("auth: account already exists")
)

// Account is a credential record. WrappedKey is the personal key encrypted
// under the password-derived key; no code path writes the plaintext key.
type Account struct {
	ID         uuid.UUID
	Email      string
	FirstName  string
	LastName   string
	PassHash   string // argon2id encoded string
	WrappedKey string // base64 of IV||ciphertext
	Roles      []Role
	CreatedAt  time.Time
}

type CredentialStore interface {
	Add(ctx context.Context, a *Account) error
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	// WrappedPersonalKey satisfies keyvault.WrappedKeySource.
	WrappedPersonalKey(ctx context.Context, email string) (string, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryCredentialStore backs tests and the dev server.
type MemoryCredentialStore struct {
	mu      sync.RWMutex
	byEmail map[string]*Account
	byID    map[uuid.UUID]*Account
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		byEmail: map[string]*Account{},
		byID:    map[uuid.UUID]*Account{},
	}
}

func (s *MemoryCredentialStore) Add(_ context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := normalizeEmail(a.Email)
	if _, exists := s.byEmail[email]; exists {
		return ErrAccountExists
	}
	clone := *a
	clone.Email = email
	s.byEmail[email] = &clone
	s.byID[a.ID] = &clone
	return nil
}

func (s *MemoryCredentialStore) FindByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	clone := *a
	return &clone, nil
}

func (s *MemoryCredentialStore) FindByID(_ context.Context, id uuid.UUID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	clone := *a
	return &clone, nil
}

func (s *MemoryCredentialStore) WrappedPersonalKey(ctx context.Context, email string) (string, error) {
	a, err := s.FindByEmail(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		return "", keyvault.ErrPrincipalNotFound
	}
	if err != nil {
		return "", err
	}
	return a.WrappedKey, nil
}
