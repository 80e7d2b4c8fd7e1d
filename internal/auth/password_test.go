package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("Str0ngPass!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))
	assert.NotContains(t, hash, "Str0ngPass!")

	assert.NoError(t, h.Compare(hash, "Str0ngPass!"))
	assert.ErrorIs(t, h.Compare(hash, "str0ngpass!"), ErrMismatch)
	assert.Error(t, h.Compare("not-a-hash", "Str0ngPass!"))

	h.CompareDummy("anything")
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.MinCost, NewBcryptHasher(bcrypt.MinCost).cost)
}
