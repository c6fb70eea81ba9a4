// Package auth implements the credential primitives: PBKDF2 key
// stretching for stored passwords and fixed-lifetime session tokens.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 round count. Deliberately high and fixed;
	// changing it invalidates every stored hash.
	Iterations = 100_000

	saltBytes = 32
	keyBytes  = sha256.Size
)

// HashPassword derives a PBKDF2-HMAC-SHA256 hash from the password with a
// fresh random salt. Both return values are hex-encoded for storage.
func HashPassword(password string) (hash, salt string, err error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	salt = hex.EncodeToString(raw)
	key := pbkdf2.Key([]byte(password), []byte(salt), Iterations, keyBytes, sha256.New)
	return hex.EncodeToString(key), salt, nil
}

// VerifyPassword recomputes the hash with the stored salt and compares in
// constant time. It reports only match/no-match, never why.
func VerifyPassword(storedHash, storedSalt, password string) bool {
	want, err := hex.DecodeString(storedHash)
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(password), []byte(storedSalt), Iterations, keyBytes, sha256.New)
	return subtle.ConstantTimeCompare(want, got) == 1
}
