// Package cryptox derives and checks the admin passphrase verifier used
// by the console host's permission checker. The passphrase itself is
// never stored: only an argon2id-derived verifier hash is kept.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// DeriveKey stretches a passphrase with argon2id.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier hashes a derived key into the value safe to persist.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// RandomSalt returns n cryptographically random bytes.
func RandomSalt(n int) ([]byte, error) {
	salt := make([]byte, n)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("read random salt: %w", err)
	}
	return salt, nil
}

// VerifyPassphrase reports whether passphrase matches the stored
// verifier for the given salt, in constant time.
func VerifyPassphrase(passphrase, salt, verifier []byte) bool {
	candidate := MakeVerifier(DeriveKey(passphrase, salt))
	return subtle.ConstantTimeCompare(candidate, verifier) == 1
}
