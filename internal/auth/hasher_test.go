package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := testHasher()

	hash, err := h.Hash("abcdef")
	require.NoError(t, err)
	assert.NotEqual(t, "abcdef", hash)
	assert.NotContains(t, hash, "abcdef")

	ok, err := h.Verify("abcdef", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("abcdeg", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasherFreshSalt(t *testing.T) {
	h := testHasher()

	first, err := h.Hash("abcdef")
	require.NoError(t, err)
	second, err := h.Hash("abcdef")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestBcryptHasherMalformedHashIsFault(t *testing.T) {
	h := testHasher()

	ok, err := h.Verify("abcdef", "not-a-bcrypt-hash")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestNewBcryptHasherCost(t *testing.T) {
	hash, err := NewBcryptHasher(0).Hash("abcdef")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, cost)

	hash, err = NewBcryptHasher(bcrypt.MinCost).Hash("abcdef")
	require.NoError(t, err)
	cost, err = bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}
