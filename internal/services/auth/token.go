// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// TokenLength is the number of digits in a pending token.
	TokenLength = 6
	// tokenSpace is 10^TokenLength, about 19.9 bits of entropy.
	tokenSpace = 1_000_000
	// maxTokenAttempts bounds regeneration after a uniqueness collision.
	maxTokenAttempts = 5
)

// TokenGenerator produces pending confirmation and reset tokens.
type TokenGenerator interface {
	Generate() (string, error)
}

// DigitTokenGenerator draws uniformly distributed 6-digit codes from crypto/rand.
type DigitTokenGenerator struct{}

// Generate returns a zero-padded 6-digit code.
func (DigitTokenGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(tokenSpace))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return fmt.Sprintf("%0*d", TokenLength, n.Int64()), nil
}

// IsWellFormedToken reports whether s has the shape of a pending token.
func IsWellFormedToken(s string) bool {
	if len(s) != TokenLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
