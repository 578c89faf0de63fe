package utils

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashCredential returns a bcrypt hash of plain using the given cost.
func HashCredential(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// IsBcryptHash reports whether stored looks like a bcrypt hash.
func IsBcryptHash(stored string) bool {
	return len(stored) == 60 &&
		(strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$"))
}

// VerifyCredential compares a supplied password with the stored credential.
// Stored bcrypt hashes are checked with bcrypt; anything else is compared as
// plain text, which is how existing accounts were provisioned.
// TODO: drop the plain-text branch once every stored credential is rehashed.
func VerifyCredential(stored, supplied string) bool {
	if stored == "" || supplied == "" {
		return false
	}
	if IsBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
