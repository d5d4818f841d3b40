package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-mot-de-passe", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, IsBcryptHash(hash))
	assert.NotEqual(t, "s3cret-mot-de-passe", hash)

	assert.NoError(t, VerifyPassword("s3cret-mot-de-passe", hash))
	assert.ErrorIs(t, VerifyPassword("mauvais", hash), ErrInvalidCredentials)
}

func TestHashPasswordClampsInvalidCost(t *testing.T) {
	// Un coût hors bornes retombe sur le coût par défaut
	hash, err := HashPassword("abc", 99)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(32)
	require.NoError(t, err)
	b, err := RandomToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 64) // hex : 2 caractères par octet
	assert.NotEqual(t, a, b)
}
