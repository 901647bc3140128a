package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// Claims is what a verified bearer token carries. EncodedKey is the base64
// derived key for the login; the token is signed but not encrypted, so the
// token holder and the server can both recover the same key material. This
// replaces any server-side session state.
type Claims struct {
	Email      string
	EncodedKey string
	FirstName  string
	LastName   string
	TokenID    string
	IssuedAt   int64
	ExpiresAt  int64
}

type TokenSigner struct {
	key []byte
	iss string
	ttl time.Duration
}

// NewTokenSigner derives the HS256 signing key from the configured secret
// with HKDF-SHA256 so the raw secret is never used directly as a MAC key.
func NewTokenSigner(secret []byte, iss string, ttl time.Duration) (*TokenSigner, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret required")
	}
	key := make([]byte, 32)
	stream := hkdf.New(sha256.New, secret, nil, []byte("cardtown/token-signing/v1"))
	if _, err := io.ReadFull(stream, key); err != nil {
		return nil, err
	}
	return &TokenSigner{key: key, iss: iss, ttl: ttl}, nil
}

// IssueToken mints a signed token for one login. derivedKey rides along as
// the ek claim and is the only proof of password possession the server
// sees on later requests.
func (s *TokenSigner) IssueToken(a *Account, derivedKey []byte) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"iss":    s.iss,
		"sub":    a.Email,
		"iat":    now.Unix(),
		"exp":    exp.Unix(),
		"jti":    randomJTI(),
		"ek":     base64.StdEncoding.EncodeToString(derivedKey),
		"f_name": a.FirstName,
		"l_name": a.LastName,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(s.key)
	return ss, exp, err
}

// ParseAndValidate rejects malformed, expired, or signature-invalid tokens
// with a single generic error.
func (s *TokenSigner) ParseAndValidate(tokenStr string) (*Claims, error) {
	keyFunc := func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	}
	tok, err := jwt.ParseWithClaims(
		tokenStr,
		jwt.MapClaims{},
		keyFunc,
		jwt.WithIssuer(s.iss),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil, ErrUnauthenticated
	}
	std := tok.Claims.(jwt.MapClaims)

	getString := func(k string) string {
		if v, ok := std[k].(string); ok {
			return v
		}
		return ""
	}
	getInt64 := func(k string) int64 {
		switch v := std[k].(type) {
		case float64:
			return int64(v)
		case int64:
			return v
		default:
			return 0
		}
	}

	c := &Claims{
		Email:      getString("sub"),
		EncodedKey: getString("ek"),
		FirstName:  getString("f_name"),
		LastName:   getString("l_name"),
		TokenID:    getString("jti"),
		IssuedAt:   getInt64("iat"),
		ExpiresAt:  getInt64("exp"),
	}
	if c.Email == "" || c.EncodedKey == "" {
		return nil, ErrUnauthenticated
	}
	return c, nil
}

func randomJTI() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
