package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// New generates a cryptographically random 64-character hex token, used for
// session ids, CSRF tokens and OAuth state parameters.
func New() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Must is New for call sites where randomness failure is unrecoverable anyway.
func Must() string {
	t, err := New()
	if err != nil {
		panic(err)
	}
	return t
}
