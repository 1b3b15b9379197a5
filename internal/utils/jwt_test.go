package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_ClaimShape(t *testing.T) {
	issuer := NewTokenIssuer("super-secret", 0)
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return fixed }

	tok, err := issuer.Issue(42, "admin")
	require.NoError(t, err)

	raw := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, raw)
	require.NoError(t, err)

	assert.Equal(t, float64(42), raw["accountId"])
	assert.Equal(t, "admin", raw["role"])
	assert.Equal(t, float64(fixed.Add(SessionTTL).Unix()), raw["exp"])
}

func TestParseToken_Success(t *testing.T) {
	tok, err := NewTokenIssuer("secret", time.Hour).Issue(7, "user")
	require.NoError(t, err)

	claims, err := ParseToken(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.AccountID)
	assert.Equal(t, "user", claims.Role)
}

func TestParseToken_WrongSecret(t *testing.T) {
	tok, err := NewTokenIssuer("right", time.Hour).Issue(1, "user")
	require.NoError(t, err)

	_, err = ParseToken(tok, "wrong")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	tok, err := issuer.Issue(1, "user")
	require.NoError(t, err)

	_, err = ParseToken(tok, "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
