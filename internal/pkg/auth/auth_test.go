package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestJWT_RoundTrip(t *testing.T) {
	m := NewJWTManager(testSecret, "pharmacy", time.Hour)

	token, err := m.GenerateAccessToken(42, "012345678")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "012345678", claims.Phone)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, "user:42", claims.Subject)
}

func TestJWT_Rejects(t *testing.T) {
	m := NewJWTManager(testSecret, "pharmacy", time.Hour)
	token, err := m.GenerateAccessToken(1, "p")
	require.NoError(t, err)

	other := NewJWTManager("ffffffffffffffffffffffffffffffff", "pharmacy", time.Hour)
	_, err = other.ValidateToken(token)
	assert.Error(t, err, "wrong secret")

	wrongIssuer := NewJWTManager(testSecret, "someone-else", time.Hour)
	_, err = wrongIssuer.ValidateToken(token)
	assert.Error(t, err, "wrong issuer")

	expired := NewJWTManager(testSecret, "pharmacy", -time.Minute)
	token, err = expired.GenerateAccessToken(1, "p")
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	assert.Error(t, err, "expired")
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "abc", ExtractTokenFromHeader("bearer abc"))
	assert.Empty(t, ExtractTokenFromHeader("Basic abc"))
	assert.Empty(t, ExtractTokenFromHeader(""))
}

func TestPasswordManager(t *testing.T) {
	p := NewPasswordManager(4)

	hash, err := p.HashPassword("panadol-500")
	require.NoError(t, err)
	assert.NoError(t, p.VerifyPassword("panadol-500", hash))
	assert.Error(t, p.VerifyPassword("wrong", hash))

	_, err = p.HashPassword("abc")
	assert.Error(t, err)
	_, err = p.HashPassword("Password")
	assert.Error(t, err)
}

func TestMemoryDenylist(t *testing.T) {
	d := NewMemoryDenylist()
	ctx := context.Background()

	require.NoError(t, d.Revoke(ctx, "live", time.Now().Add(time.Hour)))
	require.NoError(t, d.Revoke(ctx, "stale", time.Now().Add(-time.Second)))

	revoked, err := d.Revoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = d.Revoked(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = d.Revoked(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, revoked)
}
