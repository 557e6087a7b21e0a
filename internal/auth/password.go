package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltLen is the length of the random salt stored per user.
	SaltLen = 16
	// HashLen is the length of the derived key stored per user.
	HashLen = 32

	kdfIterations = 200_000
)

// GenerateSalt returns a fresh random salt for password derivation.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// HashPassword derives the stored credential material from a password and
// salt using PBKDF2-SHA256 at a fixed iteration count.
func HashPassword(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, kdfIterations, HashLen, sha256.New)
}

// VerifyPassword re-derives the hash with the stored salt and compares it to
// the stored hash in constant time.
func VerifyPassword(password string, salt, hash []byte) bool {
	if len(salt) == 0 || len(hash) == 0 {
		return false
	}
	computed := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(computed, hash) == 1
}
