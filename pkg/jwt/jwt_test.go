package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	m := NewJWTManager("secret", "estate-listing", time.Hour)

	token, err := m.GenerateToken(42)
	require.NoError(t, err)

	id, err := m.ExtractUserID(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestParseTokenErrors(t *testing.T) {
	m := NewJWTManager("secret", "estate-listing", time.Hour)
	expired := NewJWTManager("secret", "estate-listing", time.Hour)
	expired.expiry = -time.Minute
	otherKey := NewJWTManager("other", "estate-listing", time.Hour)
	otherIssuer := NewJWTManager("secret", "someone-else", time.Hour)

	expiredToken, err := expired.GenerateToken(1)
	require.NoError(t, err)
	otherKeyToken, err := otherKey.GenerateToken(1)
	require.NoError(t, err)
	otherIssuerToken, err := otherIssuer.GenerateToken(1)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "malformed", token: "not.a.token", want: ErrTokenMalformed},
		{name: "expired", token: expiredToken, want: ErrTokenExpired},
		{name: "wrong key", token: otherKeyToken, want: ErrTokenInvalid},
		{name: "wrong issuer", token: otherIssuerToken, want: ErrTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ParseToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDisabledManager(t *testing.T) {
	m := NewJWTManager("", "", 0)
	assert.False(t, m.Enabled())

	_, err := m.GenerateToken(1)
	assert.Error(t, err)

	_, err = m.ParseToken("anything")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
