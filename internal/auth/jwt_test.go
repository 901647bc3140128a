package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ZackMurry/cardtown-sub000/internal/digest"
)

func testAccount() *Account {
	return &Account{
		ID:        uuid.New(),
		Email:     "a@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Roles:     []Role{RoleUser},
	}
}

func TestIssueAndParse(t *testing.T) {
	signer, err := NewTokenSigner([]byte("test-secret"), "cardvault", time.Minute)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	derived := digest.SumString("Sw0rdfish!")
	tok, exp, err := signer.IssueToken(testAccount(), derived)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatal("token already expired at issue")
	}
	claims, err := signer.ParseAndValidate(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Email != "a@example.com" || claims.FirstName != "Ada" || claims.LastName != "Lovelace" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	ek, err := base64.StdEncoding.DecodeString(claims.EncodedKey)
	if err != nil {
		t.Fatalf("ek decode: %v", err)
	}
	if string(ek) != string(derived) {
		t.Fatal("ek claim does not carry the derived key")
	}
}

func TestParseRejectsTamperedPayload(t *testing.T) {
	signer, _ := NewTokenSigner([]byte("test-secret"), "cardvault", time.Minute)
	tok, _, err := signer.IssueToken(testAccount(), digest.SumString("pw"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	// Flip one character of the signature-protected payload.
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]
	if _, err := signer.ParseAndValidate(tampered); err == nil {
		t.Fatal("tampered token validated")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	signer, _ := NewTokenSigner([]byte("test-secret"), "cardvault", -time.Minute)
	tok, _, err := signer.IssueToken(testAccount(), digest.SumString("pw"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := signer.ParseAndValidate(tok); err == nil {
		t.Fatal("expired token validated")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	a, _ := NewTokenSigner([]byte("secret-a"), "cardvault", time.Minute)
	b, _ := NewTokenSigner([]byte("secret-b"), "cardvault", time.Minute)
	tok, _, err := a.IssueToken(testAccount(), digest.SumString("pw"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.ParseAndValidate(tok); err == nil {
		t.Fatal("token signed with another secret validated")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	signer, _ := NewTokenSigner([]byte("test-secret"), "cardvault", time.Minute)
	for _, in := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := signer.ParseAndValidate(in); err == nil {
			t.Fatalf("garbage %q validated", in)
		}
	}
}

func TestSignerRequiresSecret(t *testing.T) {
	if _, err := NewTokenSigner(nil, "cardvault", time.Minute); err == nil {
		t.Fatal("expected error for empty signing secret")
	}
}
