package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Redrow_Exposed/internal/config"
)

func newTestIssuer(accessTTL time.Duration) *TokenIssuer {
	return NewTokenIssuer(config.JWTConfig{
		AccessSecret:  "test-access-secret-at-least-32-chars",
		RefreshSecret: "test-refresh-secret-at-least-32-char",
		AccessTTL:     accessTTL,
		RefreshTTL:    time.Hour,
	})
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := newTestIssuer(time.Minute)

	pair, err := issuer.GeneratePair(42, "admin")
	require.NoError(t, err)

	claims, err := issuer.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	refresh, err := issuer.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), refresh.UserID)
}

func TestTokenIssuer_RejectsSwappedTokens(t *testing.T) {
	issuer := newTestIssuer(time.Minute)
	pair, err := issuer.GeneratePair(1, "user")
	require.NoError(t, err)

	_, err = issuer.ParseAccess(pair.RefreshToken)
	assert.Error(t, err)

	_, err = issuer.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := newTestIssuer(-time.Minute)
	pair, err := issuer.GeneratePair(1, "user")
	require.NoError(t, err)

	_, err = issuer.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRandDigits(t *testing.T) {
	code, err := RandDigits(6)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}
}
