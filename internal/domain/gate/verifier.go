package gate

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PlainVerifier compares against a plaintext passphrase in constant time.
type PlainVerifier struct {
	expected []byte
}

// NewPlainVerifier creates a plaintext verifier. An empty passphrase never matches.
func NewPlainVerifier(expected string) PlainVerifier {
	return PlainVerifier{expected: []byte(expected)}
}

// Verify implements Verifier.
func (v PlainVerifier) Verify(input string) bool {
	if len(v.expected) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(input), v.expected) == 1
}

// BcryptVerifier compares against a salted bcrypt hash.
type BcryptVerifier struct {
	hash []byte
}

// NewBcryptVerifier validates the hash format and creates a verifier.
func NewBcryptVerifier(hash string) (BcryptVerifier, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return BcryptVerifier{}, fmt.Errorf("invalid bcrypt hash: %w", err)
	}
	return BcryptVerifier{hash: []byte(hash)}, nil
}

// Verify implements Verifier.
func (v BcryptVerifier) Verify(input string) bool {
	return bcrypt.CompareHashAndPassword(v.hash, []byte(input)) == nil
}

// HashPassphrase produces a bcrypt hash suitable for NewBcryptVerifier.
func HashPassphrase(passphrase string, cost int) (string, error) {
	if passphrase == "" {
		return "", fmt.Errorf("passphrase is required")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(passphrase), cost)
	if err != nil {
		return "", fmt.Errorf("hash passphrase: %w", err)
	}
	return string(h), nil
}
