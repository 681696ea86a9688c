package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	iss := NewTokenIssuer("secret-0123456789", time.Hour)
	token, claims, err := iss.Generate("u1", "user")
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	got, err := iss.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "user", got.Role)
	assert.Equal(t, claims.ID, got.ID)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	iss := NewTokenIssuer("secret-0123456789", time.Hour)
	token, _, err := iss.Generate("u1", "user")
	require.NoError(t, err)

	_, err = NewTokenIssuer("another-secret-xyz", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = iss.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	iss.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = iss.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestNewTokenIssuer_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTokenTTL, NewTokenIssuer("s", 0).TTL())
}
