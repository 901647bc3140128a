package auth

import (
	"strings"
	"testing"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword(DefaultArgon, "Sw0rdfish!Extra1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "argon2id$") {
		t.Fatalf("unexpected encoding %q", hash)
	}

	ok, err := VerifyPassword("Sw0rdfish!Extra1", hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}

	ok, err = VerifyPassword("sw0rdfish!extra1", hash)
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestHashIsSalted(t *testing.T) {
	a, _ := HashPassword(DefaultArgon, "Sw0rdfish!Extra1")
	b, _ := HashPassword(DefaultArgon, "Sw0rdfish!Extra1")
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyRejectsMalformedRecord(t *testing.T) {
	for _, encoded := range []string{
		"",
		"bcrypt$whatever",
		"argon2id$m=65536,t=3,p=1$only-two-parts",
		"argon2id$m=bad$c2FsdA$a2V5",
	} {
		ok, err := VerifyPassword("Sw0rdfish!Extra1", encoded)
		if err == nil || ok {
			t.Fatalf("malformed record %q: ok=%v err=%v", encoded, ok, err)
		}
	}
}
