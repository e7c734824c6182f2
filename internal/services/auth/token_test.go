// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"testing"

	"codeberg.org/cashtrackr/cashtrackr/internal/services/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigitTokenGenerator_Format(t *testing.T) {
	g := auth.DigitTokenGenerator{}

	for range 200 {
		token, err := g.Generate()
		require.NoError(t, err)
		assert.Len(t, token, auth.TokenLength)
		assert.True(t, auth.IsWellFormedToken(token), "token %q", token)
	}
}

func TestDigitTokenGenerator_CollisionsWithinBirthdayBound(t *testing.T) {
	// 2000 draws from 10^6 codes expect about n^2/2N = 2 collisions.
	const draws = 2000
	g := auth.DigitTokenGenerator{}

	seen := make(map[string]struct{}, draws)
	collisions := 0
	for range draws {
		token, err := g.Generate()
		require.NoError(t, err)
		if _, ok := seen[token]; ok {
			collisions++
		}
		seen[token] = struct{}{}
	}

	assert.LessOrEqual(t, collisions, 15)
}

func TestIsWellFormedToken(t *testing.T) {
	assert.True(t, auth.IsWellFormedToken("000000"))
	assert.True(t, auth.IsWellFormedToken("123456"))
	assert.False(t, auth.IsWellFormedToken("12345"))
	assert.False(t, auth.IsWellFormedToken("1234567"))
	assert.False(t, auth.IsWellFormedToken("12a456"))
	assert.False(t, auth.IsWellFormedToken(""))
}
