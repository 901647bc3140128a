// Package keyvault owns the personal-key lifecycle: a random 256-bit key is
// created once at signup, wrapped under the password-derived key, and stored
// only in wrapped form. Unwrapping happens transiently inside a request and
// the plaintext key never reaches durable storage.
package keyvault

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/ZackMurry/cardtown-sub000/internal/crypto"
)

var ErrPrincipalNotFound = errors.New("keyvault: principal not found")

// WrappedKeySource loads the stored wrapped personal key for an account.
// Implementations return ErrPrincipalNotFound when the email does not
// resolve to a credential record.
type WrappedKeySource interface {
	WrappedPersonalKey(ctx context.Context, email string) (string, error)
}

// Create generates a personal key for a new account and wraps it under the
// caller's derived key. The returned wrapped form is what gets persisted;
// the plaintext key is returned so the caller can finish signup (e.g.
// encrypt a first entity) and must be zeroed when done.
func Create(derivedKey []byte) (personalKey []byte, wrapped string, err error) {
	personalKey, err = crypto.NewContentKey()
	if err != nil {
		return nil, "", err
	}
	wrapped, err = Wrap(personalKey, derivedKey)
	if err != nil {
		crypto.Zero(personalKey)
		return nil, "", err
	}
	return personalKey, wrapped, nil
}

// Wrap encrypts a personal key under a derived key for storage.
func Wrap(personalKey, derivedKey []byte) (string, error) {
	ct, err := crypto.Encrypt(personalKey, derivedKey)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

type Vault struct {
	src WrappedKeySource
}

func New(src WrappedKeySource) *Vault {
	return &Vault{src: src}
}

// Unwrap loads the account's wrapped personal key and decrypts it with the
// supplied derived key. A wrong derived key surfaces as
// crypto.ErrDecryptFailed, which in practice means the caller derived it
// from the wrong password.
func (v *Vault) Unwrap(ctx context.Context, email string, derivedKey []byte) ([]byte, error) {
	wrapped, err := v.src.WrappedPersonalKey(ctx, email)
	if err != nil {
		return nil, err
	}
	ct, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return nil, crypto.ErrDecryptFailed
	}
	return crypto.Decrypt(ct, derivedKey)
}
