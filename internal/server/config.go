package server

import (
	"errors"
	"time"

	"github.com/ZackMurry/cardtown-sub000/internal/auth"
)

type Config struct {
	Addr      string
	MongoURI  string
	MongoDB   string
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration
	// Operator is the single privileged non-human credential, compared
	// against the header pair instead of the credential collection.
	Operator auth.OperatorCreds
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.MongoDB == "" {
		c.MongoDB = "cardvault"
	}
	if c.JWTIssuer == "" {
		c.JWTIssuer = "cardvault-backend"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 15 * time.Minute
	}
}

// validate covers the configuration failures that must stop the process at
// startup rather than surface per-request.
func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("server: JWTSecret required")
	}
	if c.Operator.Email == "" || c.Operator.Password == "" {
		return errors.New("server: operator credentials required")
	}
	return nil
}
