package tests

import (
	"bytes"
	"crypto/rand"
	"testing"

	cr "github.com/ZackMurry/cardtown-sub000/internal/crypto"
)

func FuzzCodecRoundTrip(f *testing.F) {
	f.Add([]byte("the affirmative drops the disad"), []byte("Sw0rdfish!"))
	f.Add([]byte{}, []byte("k"))
	f.Fuzz(func(t *testing.T, pt, keyMaterial []byte) {
		ct, err := cr.Encrypt(pt, keyMaterial)
		if err != nil {
			t.Skip()
		}
		got, err := cr.Decrypt(ct, keyMaterial)
		if err != nil {
			t.Fatalf("decrypt err: %v", err)
		}
		if !bytes.Equal(pt, got) {
			t.Fatalf("roundtrip mismatch")
		}
	})
}

func FuzzDecryptGarbage(f *testing.F) {
	key := make([]byte, 32)
	rand.Read(key)
	f.Add([]byte("not a real ciphertext at all, just noise"))
	f.Fuzz(func(t *testing.T, ct []byte) {
		// Must reject or succeed cleanly, never panic.
		_, _ = cr.Decrypt(ct, key)
	})
}
