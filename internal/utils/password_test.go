package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("orientation-week", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "orientation-week", hash)

	assert.True(t, VerifyPassword(hash, "orientation-week"))
	assert.False(t, VerifyPassword(hash, "orientation-weeks"))
	assert.False(t, VerifyPassword("not-a-hash", "orientation-week"))
}
