package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-relay/internal/auth"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	manager := auth.NewTokenManager("secret", 30)

	token, expiresAt, err := manager.GenerateToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := manager.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, auth.SubjectAdmin, claims.Subject)
}

func TestTokenManager_WrongSecretRejected(t *testing.T) {
	issuer := auth.NewTokenManager("secret-a", 30)
	verifier := auth.NewTokenManager("secret-b", 30)

	token, _, err := issuer.GenerateToken()
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestTokenManager_GarbageRejected(t *testing.T) {
	manager := auth.NewTokenManager("secret", 30)

	_, err := manager.ParseToken("not-a-jwt")
	assert.Error(t, err)
}

func TestHashAndCompareAdminKey(t *testing.T) {
	hash, err := auth.HashAdminKey("hunter2", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.NoError(t, auth.CompareAdminKey(hash, "hunter2"))
	assert.Error(t, auth.CompareAdminKey(hash, "wrong"))
}
