package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ZackMurry/cardtown-sub000/internal/digest"
	"github.com/ZackMurry/cardtown-sub000/internal/keyvault"
	"github.com/ZackMurry/cardtown-sub000/internal/team"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "Sw0rdfish!LongEnough1"
	opEmail      = "operator@cardvault.internal"
	opPassword   = "0perator-Secret-Value!"
)

func testBuilder(t *testing.T) (*Builder, *MemoryCredentialStore, *team.Manager) {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	creds := NewMemoryCredentialStore()
	teams := team.NewManager(team.NewMemoryStore(), logger)
	signer, err := NewTokenSigner([]byte("test-signing-secret"), "cardvault", time.Minute)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	b := NewBuilder(creds, keyvault.New(creds), teams, signer,
		OperatorCreds{Email: opEmail, Password: opPassword}, logger)

	for _, u := range []struct{ email, password, first, last string }{
		{testEmail, testPassword, "Ada", "Lovelace"},
		{opEmail, opPassword, "Card", "Vault"},
	} {
		hash, err := HashPassword(DefaultArgon, u.password)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		_, wrapped, err := keyvault.Create(digest.SumString(u.password))
		if err != nil {
			t.Fatalf("keyvault create: %v", err)
		}
		if err := creds.Add(context.Background(), &Account{
			ID:         uuid.New(),
			Email:      u.email,
			FirstName:  u.first,
			LastName:   u.last,
			PassHash:   hash,
			WrappedKey: wrapped,
			Roles:      []Role{RoleUser},
			CreatedAt:  time.Now(),
		}); err != nil {
			t.Fatalf("add account: %v", err)
		}
	}
	return b, creds, teams
}

func TestLoginAndReconstruct(t *testing.T) {
	b, _, _ := testBuilder(t)
	ctx := context.Background()

	tok, _, err := b.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	p, err := b.FromToken(ctx, tok)
	if err != nil {
		t.Fatalf("from token: %v", err)
	}
	defer p.Destroy()
	if p.Email != testEmail || p.FirstName != "Ada" {
		t.Fatalf("principal mismatch: %+v", p)
	}
	if p.OnTeam() {
		t.Fatal("fresh account should not be on a team")
	}
	if len(p.ActiveKey()) == 0 {
		t.Fatal("no active key")
	}

	// Reconstruction is stateless: a second pass over the same token
	// yields the same key material independently.
	p2, err := b.FromToken(ctx, tok)
	if err != nil {
		t.Fatalf("second reconstruction: %v", err)
	}
	defer p2.Destroy()
	if !bytes.Equal(p.ActiveKey(), p2.ActiveKey()) {
		t.Fatal("reconstructions disagree on the active key")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	b, _, _ := testBuilder(t)
	if _, _, err := b.Login(context.Background(), testEmail, "wrong-password"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("want ErrBadCredentials, got %v", err)
	}
}

func TestLoginUnknownEmailIndistinguishable(t *testing.T) {
	b, _, _ := testBuilder(t)
	ctx := context.Background()
	_, _, errUnknown := b.Login(ctx, "ghost@example.com", testPassword)
	_, _, errWrongPw := b.Login(ctx, testEmail, "wrong-password")
	if !errors.Is(errUnknown, ErrBadCredentials) || !errors.Is(errWrongPw, ErrBadCredentials) {
		t.Fatalf("both failures must map to ErrBadCredentials: %v / %v", errUnknown, errWrongPw)
	}
}

func TestActiveKeySwitchesToTeamKey(t *testing.T) {
	b, _, teams := testBuilder(t)
	ctx := context.Background()

	tok, _, err := b.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	p, err := b.FromToken(ctx, tok)
	if err != nil {
		t.Fatalf("from token: %v", err)
	}
	personalKey := append([]byte(nil), p.ActiveKey()...)
	if _, _, err := teams.Create(ctx, p.ID, p.ActiveKey(), "Varsity"); err != nil {
		t.Fatalf("create team: %v", err)
	}
	p.Destroy()

	// Same token, next request: the principal now resolves the team key.
	p2, err := b.FromToken(ctx, tok)
	if err != nil {
		t.Fatalf("reconstruct after join: %v", err)
	}
	defer p2.Destroy()
	if !p2.OnTeam() {
		t.Fatal("principal should be on a team")
	}
	if bytes.Equal(p2.ActiveKey(), personalKey) {
		t.Fatal("active key should be the team key, not the personal key")
	}
}

func TestOperatorHeader(t *testing.T) {
	b, _, _ := testBuilder(t)
	ctx := context.Background()

	p, err := b.FromOperatorHeader(ctx, opEmail+"|"+opPassword)
	if err != nil {
		t.Fatalf("operator auth: %v", err)
	}
	defer p.Destroy()
	if p.Email != opEmail {
		t.Fatalf("wrong operator principal: %s", p.Email)
	}

	for _, bad := range []string{
		opEmail + "|wrong",
		"wrong|" + opPassword,
		"no-delimiter",
		"",
	} {
		if _, err := b.FromOperatorHeader(ctx, bad); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("header %q: want ErrUnauthenticated, got %v", bad, err)
		}
	}
}

func TestReissueCarriesSameDerivedKey(t *testing.T) {
	b, _, _ := testBuilder(t)
	ctx := context.Background()

	tok, _, err := b.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	tok2, _, err := b.Reissue(ctx, tok)
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}
	c1, err := b.signer.ParseAndValidate(tok)
	if err != nil {
		t.Fatalf("parse original: %v", err)
	}
	c2, err := b.signer.ParseAndValidate(tok2)
	if err != nil {
		t.Fatalf("parse reissued: %v", err)
	}
	if c1.EncodedKey != c2.EncodedKey {
		t.Fatal("reissued token carries a different derived key")
	}
}

func TestCorruptWrappedKeyIsInternal(t *testing.T) {
	b, creds, _ := testBuilder(t)
	ctx := context.Background()

	tok, _, err := b.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Truncate the stored wrapped key behind a validly signed token.
	a, err := creds.FindByEmail(ctx, testEmail)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	creds.byEmail[a.Email].WrappedKey = "AAAA"

	if _, err := b.FromToken(ctx, tok); !errors.Is(err, ErrKeyUnwrap) {
		t.Fatalf("want ErrKeyUnwrap, got %v", err)
	}
}
