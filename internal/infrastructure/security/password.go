// Package security provides credential verification helpers
package security

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// VerifyPassword checks a candidate password against the configured value.
// The configured value may be a bcrypt hash ($2a$/$2b$/$2y$ prefix); anything
// else is treated as a plaintext secret and compared in constant time.
func VerifyPassword(configured, candidate string) bool {
	if configured == "" {
		return false
	}

	if strings.HasPrefix(configured, "$2a$") || strings.HasPrefix(configured, "$2b$") || strings.HasPrefix(configured, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(candidate)) == nil
	}

	return subtle.ConstantTimeCompare([]byte(configured), []byte(candidate)) == 1
}

// HashPassword returns a bcrypt hash for the given plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
