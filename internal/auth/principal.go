package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ZackMurry/cardtown-sub000/internal/crypto"
	"github.com/ZackMurry/cardtown-sub000/internal/digest"
	"github.com/ZackMurry/cardtown-sub000/internal/keyvault"
	"github.com/ZackMurry/cardtown-sub000/internal/team"
)

var (
	// ErrBadCredentials covers both unknown email and wrong password so
	// the response cannot be used for account enumeration.
	ErrBadCredentials  = errors.New("auth: invalid credentials")
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	// ErrKeyUnwrap marks an unwrap failure behind a validly signed token
	// or an existing membership row: corrupted ciphertext or a logic bug,
	// never a user mistake. Not retryable.
	ErrKeyUnwrap = errors.New("auth: key unwrap failed")
)

// Principal is the ephemeral acting identity for exactly one request. It is
// rebuilt from the token on every request and never cached; Destroy zeroes
// its key material once the handler is done.
type Principal struct {
	ID        uuid.UUID
	Email     string
	FirstName string
	LastName  string
	Roles     []Role
	TeamID    uuid.UUID

	personalKey []byte
	teamKey     []byte
}

// ActiveKey is the key used for all field encryption on this request: the
// team key when the principal belongs to a team, else the personal key.
func (p *Principal) ActiveKey() []byte {
	if p.teamKey != nil {
		return p.teamKey
	}
	return p.personalKey
}

func (p *Principal) OnTeam() bool { return p.teamKey != nil }

func (p *Principal) HasRole(r Role) bool {
	for _, have := range p.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// Destroy zeroes the principal's key material.
func (p *Principal) Destroy() {
	crypto.Zero(p.personalKey)
	crypto.Zero(p.teamKey)
	p.personalKey = nil
	p.teamKey = nil
}

// OperatorCreds is the single privileged non-human credential, configured
// at startup rather than stored in the credential collection.
type OperatorCreds struct {
	Email    string
	Password string
}

// Builder reconstructs principals from credentials, tokens, or the
// operator header. It holds no per-request state; every method call stands
// alone, so concurrent requests for the same account are independent.
type Builder struct {
	creds    CredentialStore
	vault    *keyvault.Vault
	teams    *team.Manager
	signer   *TokenSigner
	operator OperatorCreds
	logger   *log.Logger
}

func NewBuilder(creds CredentialStore, vault *keyvault.Vault, teams *team.Manager, signer *TokenSigner, operator OperatorCreds, logger *log.Logger) *Builder {
	return &Builder{
		creds:    creds,
		vault:    vault,
		teams:    teams,
		signer:   signer,
		operator: operator,
		logger:   logger,
	}
}

// Login verifies the password, derives the login key, confirms the
// personal key unwraps under it, and mints a token carrying the derived
// key. The unwrap is a sanity check: a token must never be issued with a
// derived key that cannot reconstitute the personal key later.
func (b *Builder) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	a, err := b.creds.FindByEmail(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		return "", time.Time{}, ErrBadCredentials
	}
	if err != nil {
		return "", time.Time{}, err
	}
	ok, err := VerifyPassword(password, a.PassHash)
	if err != nil || !ok {
		return "", time.Time{}, ErrBadCredentials
	}

	derived := digest.SumString(password)
	defer crypto.Zero(derived)

	pk, err := b.vault.Unwrap(ctx, a.Email, derived)
	if err != nil {
		b.logger.Printf("login %s: personal key unwrap failed after password verify: %v", a.Email, err)
		return "", time.Time{}, ErrKeyUnwrap
	}
	crypto.Zero(pk)

	return b.signer.IssueToken(a, derived)
}

// FromToken rebuilds the principal for one request: verify the token,
// unwrap the personal key with the embedded derived key, resolve the
// optional team key. Token problems are expected rejections; an unwrap
// failure behind a valid signature is internal.
func (b *Builder) FromToken(ctx context.Context, tokenStr string) (*Principal, error) {
	claims, err := b.signer.ParseAndValidate(tokenStr)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	derived, err := base64.StdEncoding.DecodeString(claims.EncodedKey)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	defer crypto.Zero(derived)
	return b.build(ctx, claims.Email, derived)
}

// FromOperatorHeader authenticates the configured operator pair, supplied
// as "email|password". The comparison is constant time and the derived key
// comes from the configured password exactly as it would from a login.
func (b *Builder) FromOperatorHeader(ctx context.Context, header string) (*Principal, error) {
	email, password, found := strings.Cut(header, "|")
	if !found {
		return nil, ErrUnauthenticated
	}
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(b.operator.Email))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(b.operator.Password))
	if emailOK&passOK != 1 {
		return nil, ErrUnauthenticated
	}
	derived := digest.SumString(b.operator.Password)
	defer crypto.Zero(derived)
	return b.build(ctx, b.operator.Email, derived)
}

func (b *Builder) build(ctx context.Context, email string, derived []byte) (*Principal, error) {
	a, err := b.creds.FindByEmail(ctx, email)
	if err != nil {
		// The token was validly signed, so the record should exist.
		b.logger.Printf("principal %s: credential lookup failed: %v", email, err)
		return nil, fmt.Errorf("%w: %v", ErrKeyUnwrap, err)
	}

	personal, err := b.vault.Unwrap(ctx, a.Email, derived)
	if err != nil {
		b.logger.Printf("principal %s: personal key unwrap failed: %v", a.Email, err)
		return nil, fmt.Errorf("%w: %v", ErrKeyUnwrap, err)
	}

	p := &Principal{
		ID:          a.ID,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Roles:       a.Roles,
		personalKey: personal,
	}

	teamKey, teamID, onTeam, err := b.teams.ResolveKey(ctx, a.ID, personal)
	if err != nil {
		p.Destroy()
		b.logger.Printf("principal %s: team key unwrap failed: %v", a.Email, err)
		return nil, fmt.Errorf("%w: %v", ErrKeyUnwrap, err)
	}
	if onTeam {
		p.TeamID = teamID
		p.teamKey = teamKey
	}
	return p, nil
}

// Reissue re-mints a token from a still-valid one, e.g. right after
// joining a team so the next unwrap sees the new membership. The derived
// key carried by the new token is the same one the old token carried; the
// full reconstruction runs first to confirm it still unwraps.
func (b *Builder) Reissue(ctx context.Context, tokenStr string) (string, time.Time, error) {
	claims, err := b.signer.ParseAndValidate(tokenStr)
	if err != nil {
		return "", time.Time{}, ErrUnauthenticated
	}
	derived, err := base64.StdEncoding.DecodeString(claims.EncodedKey)
	if err != nil {
		return "", time.Time{}, ErrUnauthenticated
	}
	defer crypto.Zero(derived)

	p, err := b.build(ctx, claims.Email, derived)
	if err != nil {
		return "", time.Time{}, err
	}
	p.Destroy()

	a, err := b.creds.FindByEmail(ctx, claims.Email)
	if err != nil {
		return "", time.Time{}, err
	}
	return b.signer.IssueToken(a, derived)
}
