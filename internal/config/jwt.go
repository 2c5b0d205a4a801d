package config

import (
	"fmt"
	"os"
	"strconv"
)

// JWTConfig holds settings for session-token signing.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig builds the session-token configuration from the environment.
// SESSION_TOKEN_SECRET is required; SESSION_TOKEN_EXPIRATION_HOURS defaults
// to 24.
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv("SESSION_TOKEN_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("SESSION_TOKEN_SECRET environment variable is required")
	}

	expirationHours := 24
	if v := os.Getenv("SESSION_TOKEN_EXPIRATION_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("SESSION_TOKEN_EXPIRATION_HOURS must be a positive integer, got %q", v)
		}
		expirationHours = hours
	}

	return &JWTConfig{
		Secret:          secret,
		ExpirationHours: expirationHours,
	}, nil
}
