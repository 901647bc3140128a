package tests

import (
	"bytes"
	"testing"

	cr "github.com/ZackMurry/cardtown-sub000/internal/crypto"
	"github.com/ZackMurry/cardtown-sub000/internal/digest"
	"github.com/ZackMurry/cardtown-sub000/internal/keyvault"
)

// FuzzKeyHierarchy drives the full wrap chain: password -> derived key ->
// personal key -> wrapped team key, and checks the team key survives it.
func FuzzKeyHierarchy(f *testing.F) {
	f.Add("Sw0rdfish!Extra1")
	f.Add("")
	f.Fuzz(func(t *testing.T, password string) {
		derived := digest.SumString(password)
		personal, wrapped, err := keyvault.Create(derived)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		raw, err := cr.DecryptText(wrapped, derived)
		if err != nil {
			t.Fatalf("unwrap: %v", err)
		}
		if !bytes.Equal(personal, []byte(raw)) {
			t.Fatal("personal key did not survive wrapping")
		}

		teamKey, err := cr.NewContentKey()
		if err != nil {
			t.Fatalf("team key: %v", err)
		}
		wrappedTeam, err := keyvault.Wrap(teamKey, personal)
		if err != nil {
			t.Fatalf("wrap team key: %v", err)
		}
		back, err := cr.DecryptText(wrappedTeam, personal)
		if err != nil {
			t.Fatalf("unwrap team key: %v", err)
		}
		if !bytes.Equal(teamKey, []byte(back)) {
			t.Fatal("team key did not survive wrapping")
		}
	})
}
