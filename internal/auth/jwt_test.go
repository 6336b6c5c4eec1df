package auth

import (
	"testing"
	"time"

	"arena-ledger/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	s := NewJWTService("secret", "arena", time.Hour)

	tok, err := s.GenerateToken("wallet-abc", "Alice")
	require.NoError(t, err)

	identity, claims, err := s.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, models.Identity("wallet-abc"), identity)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "arena", claims.Issuer)
}

func TestValidateRejects(t *testing.T) {
	s := NewJWTService("secret", "arena", time.Hour)

	_, err := s.GenerateToken("", "")
	assert.Error(t, err)

	other, err := NewJWTService("other", "arena", time.Hour).GenerateToken("x", "")
	require.NoError(t, err)
	_, _, err = s.ValidateToken(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := NewJWTService("secret", "elsewhere", time.Hour).GenerateToken("x", "")
	require.NoError(t, err)
	_, _, err = s.ValidateToken(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "x",
			Issuer:    "arena",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, _, err = s.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "arena"},
	})
	signed, err = noSubject.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, _, err = s.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
