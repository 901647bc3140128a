// Package crypto implements the symmetric codec applied to every persisted
// confidential field and to key wrapping: AES-CBC with PKCS#7 padding and a
// random per-call IV prepended to the ciphertext.
//
// Key material handed to Encrypt/Decrypt may be any length (a raw 32-byte
// content key, a SHA-256 derived key, or anything else); the codec always
// normalizes it by hashing with SHA-256 and feeding the first 16 bytes to
// the AES key schedule. The effective cipher is therefore AES-128 even
// though the keys elsewhere in the hierarchy are 256-bit values. This is a
// contractual property of the stored ciphertext format: widening the key
// schedule would orphan every previously written field and wrapped key.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

const (
	ivSize          = aes.BlockSize
	keyScheduleSize = 16

	// ContentKeySize is the length of personal and team keys.
	ContentKeySize = 32
)

var (
	ErrCiphertextTooShort = errors.New("crypto: ciphertext too short")
	ErrDecryptFailed      = errors.New("crypto: decryption failed")
)

// NewContentKey returns a fresh random 256-bit key for a new account or team.
func NewContentKey() ([]byte, error) {
	key := make([]byte, ContentKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

func scheduleKey(material []byte) []byte {
	sum := sha256.Sum256(material)
	return sum[:keyScheduleSize]
}

// Encrypt seals plaintext under the given key material. Returned layout:
// [iv||ciphertext]. Two calls with identical inputs produce different
// output because the IV is drawn fresh each time.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, errors.New("crypto: empty key")
	}
	aesKey := scheduleKey(key)
	defer Zero(aesKey)

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}

	padded := pad(plaintext)
	out := make([]byte, ivSize+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[ivSize:], padded)
	return out, nil
}

// Decrypt reverses Encrypt. A wrong key or a corrupted ciphertext yields
// ErrDecryptFailed; callers must treat that as "content unreadable", never
// as absent content.
func Decrypt(ciphertext, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, errors.New("crypto: empty key")
	}
	if len(ciphertext) < ivSize+aes.BlockSize {
		return nil, ErrCiphertextTooShort
	}
	body := ciphertext[ivSize:]
	if len(body)%aes.BlockSize != 0 {
		return nil, ErrDecryptFailed
	}

	aesKey := scheduleKey(key)
	defer Zero(aesKey)

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, err
	}

	pt := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, ciphertext[:ivSize]).CryptBlocks(pt, body)
	return unpad(pt)
}

// EncryptText seals a string field and base64-encodes the result for
// storage in a text column.
func EncryptText(plaintext string, key []byte) (string, error) {
	ct, err := Encrypt([]byte(plaintext), key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// DecryptText is the inverse of EncryptText.
func DecryptText(encoded string, key []byte) (string, error) {
	ct, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecryptFailed
	}
	pt, err := Decrypt(ct, key)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	out := make([]byte, len(b)+n)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, ErrDecryptFailed
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, ErrDecryptFailed
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, ErrDecryptFailed
		}
	}
	return b[:len(b)-n], nil
}
