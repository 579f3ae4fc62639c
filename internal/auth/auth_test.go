package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("Password123!")
	require.NoError(t, err)
	assert.NotEqual(t, "Password123!", hash)
	assert.True(t, CheckPasswordHash("Password123!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestPasswordHashesAreSalted(t *testing.T) {
	h1, err := HashPassword("same")
	require.NoError(t, err)
	h2, err := HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestJWTRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateJWT(secret, "alice")
	require.NoError(t, err)

	username, err := ValidateJWT(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT([]byte("secret-a"), "alice")
	require.NoError(t, err)

	_, err = ValidateJWT([]byte("secret-b"), token)
	assert.Error(t, err)
}

func TestJWTGarbage(t *testing.T) {
	_, err := ValidateJWT([]byte("secret"), "not.a.token")
	assert.Error(t, err)
}
