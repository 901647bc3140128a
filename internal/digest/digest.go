// Package digest provides one-shot SHA-256 hashing for the key hierarchy:
// password-derived keys and key commitments both go through Sum. Every call
// hashes independently, so concurrent requests never share digest state.
package digest

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// Size is the length of every digest in bytes.
const Size = sha256.Size

// Sum returns the SHA-256 digest of b.
func Sum(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

// SumString hashes a string without an intermediate copy surviving the call.
func SumString(s string) []byte {
	return Sum([]byte(s))
}

// SumBase64 returns the digest of b encoded for text-column storage.
func SumBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(Sum(b))
}

// Equal reports whether two digests match, in constant time.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
