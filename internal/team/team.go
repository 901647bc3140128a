// Package team implements shared-content key management. A team has one
// random 256-bit key; the server stores only its SHA-256 commitment plus an
// independent wrapped copy per member, each under that member's personal
// key. The plaintext team key leaves the server exactly once, in the create
// response, as the invite secret.
package team

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ZackMurry/cardtown-sub000/internal/crypto"
	"github.com/ZackMurry/cardtown-sub000/internal/digest"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

var (
	ErrTeamNotFound  = errors.New("team: team not found")
	ErrNotMember     = errors.New("team: no membership")
	ErrAlreadyMember = errors.New("team: user already belongs to a team")
	// ErrBadInviteKey is an expected rejection: the claimed key does not
	// hash to the stored commitment.
	ErrBadInviteKey = errors.New("team: invite key does not match commitment")
)

type Team struct {
	ID uuid.UUID
	// Name is ciphertext (base64) under the team key, like every other
	// confidential field.
	Name          string
	KeyCommitment string // base64 of the raw SHA-256 of the team key
	CreatedAt     time.Time
}

// Membership ties a user to a team. WrappedKey is the team key encrypted
// under this member's personal key; every member carries an independent
// ciphertext of the same plaintext.
type Membership struct {
	TeamID     uuid.UUID
	UserID     uuid.UUID
	WrappedKey string
	Role       Role
}

type Store interface {
	InsertTeam(ctx context.Context, t *Team) error
	FindTeam(ctx context.Context, id uuid.UUID) (*Team, error)
	InsertMembership(ctx context.Context, m *Membership) error
	// FindMembershipByUser returns ErrNotMember when the user has no team.
	// At most one membership per user exists.
	FindMembershipByUser(ctx context.Context, userID uuid.UUID) (*Membership, error)
	ListMemberships(ctx context.Context, teamID uuid.UUID) ([]Membership, error)
}

type Manager struct {
	store  Store
	logger *log.Logger
}

func NewManager(store Store, logger *log.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// Find loads a team record; the name field stays ciphertext.
func (m *Manager) Find(ctx context.Context, id uuid.UUID) (*Team, error) {
	return m.store.FindTeam(ctx, id)
}

// EncryptTeam seals the team's confidential field under the team key.
func EncryptTeam(t *Team, teamKey []byte) error {
	enc, err := crypto.EncryptText(t.Name, teamKey)
	if err != nil {
		return err
	}
	t.Name = enc
	return nil
}

// DecryptTeam is the inverse of EncryptTeam.
func DecryptTeam(t *Team, teamKey []byte) error {
	name, err := crypto.DecryptText(t.Name, teamKey)
	if err != nil {
		return err
	}
	t.Name = name
	return nil
}

// Create generates a team key, stores its commitment and the creator's
// wrapped copy, and returns the plaintext key base64-encoded. The caller
// must show it to the user as the invite secret; it is not retrievable
// again in plaintext by any party.
func (m *Manager) Create(ctx context.Context, userID uuid.UUID, personalKey []byte, name string) (*Team, string, error) {
	if _, err := m.store.FindMembershipByUser(ctx, userID); err == nil {
		return nil, "", ErrAlreadyMember
	} else if !errors.Is(err, ErrNotMember) {
		return nil, "", err
	}

	teamKey, err := crypto.NewContentKey()
	if err != nil {
		return nil, "", err
	}
	defer crypto.Zero(teamKey)

	wrapped, err := crypto.Encrypt(teamKey, personalKey)
	if err != nil {
		return nil, "", err
	}

	t := &Team{
		ID:            uuid.New(),
		Name:          name,
		KeyCommitment: digest.SumBase64(teamKey),
		CreatedAt:     time.Now().UTC(),
	}
	if err := EncryptTeam(t, teamKey); err != nil {
		return nil, "", err
	}
	if err := m.store.InsertTeam(ctx, t); err != nil {
		return nil, "", err
	}
	if err := m.store.InsertMembership(ctx, &Membership{
		TeamID:     t.ID,
		UserID:     userID,
		WrappedKey: base64.StdEncoding.EncodeToString(wrapped),
		Role:       RoleOwner,
	}); err != nil {
		return nil, "", err
	}
	m.logger.Printf("team %s created by %s", t.ID, userID)
	return t, base64.StdEncoding.EncodeToString(teamKey), nil
}

// Join verifies the claimed key against the stored commitment and, on
// match, wraps it under the joiner's personal key. A mismatched key is the
// expected "wrong invite key" rejection, not an internal failure.
func (m *Manager) Join(ctx context.Context, userID uuid.UUID, personalKey []byte, teamID uuid.UUID, claimedKey string) (*Membership, error) {
	if _, err := m.store.FindMembershipByUser(ctx, userID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, ErrNotMember) {
		return nil, err
	}

	t, err := m.store.FindTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	teamKey, err := base64.StdEncoding.DecodeString(claimedKey)
	if err != nil {
		return nil, ErrBadInviteKey
	}
	defer crypto.Zero(teamKey)

	commitment, err := base64.StdEncoding.DecodeString(t.KeyCommitment)
	if err != nil {
		return nil, err
	}
	if !digest.Equal(digest.Sum(teamKey), commitment) {
		m.logger.Printf("team %s: rejected join by %s (commitment mismatch)", teamID, userID)
		return nil, ErrBadInviteKey
	}

	wrapped, err := crypto.Encrypt(teamKey, personalKey)
	if err != nil {
		return nil, err
	}
	mem := &Membership{
		TeamID:     teamID,
		UserID:     userID,
		WrappedKey: base64.StdEncoding.EncodeToString(wrapped),
		Role:       RoleMember,
	}
	if err := m.store.InsertMembership(ctx, mem); err != nil {
		return nil, err
	}
	m.logger.Printf("team %s: %s joined", teamID, userID)
	return mem, nil
}

// ResolveKey unwraps the caller's per-member team key copy. ok is false
// when the user has no team; an unwrap failure on an existing membership
// row is an internal error, since the row was written by Create or Join.
func (m *Manager) ResolveKey(ctx context.Context, userID uuid.UUID, personalKey []byte) (key []byte, teamID uuid.UUID, ok bool, err error) {
	mem, err := m.store.FindMembershipByUser(ctx, userID)
	if errors.Is(err, ErrNotMember) {
		return nil, uuid.Nil, false, nil
	}
	if err != nil {
		return nil, uuid.Nil, false, err
	}
	ct, err := base64.StdEncoding.DecodeString(mem.WrappedKey)
	if err != nil {
		return nil, uuid.Nil, false, crypto.ErrDecryptFailed
	}
	key, err = crypto.Decrypt(ct, personalKey)
	if err != nil {
		return nil, uuid.Nil, false, err
	}
	return key, mem.TeamID, true, nil
}
