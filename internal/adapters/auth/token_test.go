package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_IssueAndVerify(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)
	verifier := NewJWTVerifier(secret)

	token, err := issuer.Issue("user-123", "u@example.com", []string{"admin", "attendee"}, 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "u@example.com", claims.Email)
	assert.Equal(t, []string{"admin", "attendee"}, claims.Roles)
	assert.True(t, claims.HasRole("admin"))
	assert.False(t, claims.HasRole("owner"))
}

func TestJWTVerifier_RejectsBadTokens(t *testing.T) {
	issuer := NewJWTIssuer("secret-a")
	verifier := NewJWTVerifier("secret-b")

	t.Run("wrong secret", func(t *testing.T) {
		token, err := issuer.Issue("user-1", "u@example.com", nil, time.Hour)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		sameSecret := NewJWTVerifier("secret-a")
		token, err := issuer.Issue("user-1", "u@example.com", nil, -time.Minute)
		require.NoError(t, err)
		_, err = sameSecret.Verify(token)
		require.Error(t, err)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := verifier.Verify("not-a-jwt")
		require.Error(t, err)
	})
}
