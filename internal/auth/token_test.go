package auth_test

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", 60)

	token, exp, err := tm.GenerateToken("user-123", domain.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, exp.After(time.Now()))

	ident, err := tm.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", ident.SubjectID)
	require.Equal(t, domain.RoleAdmin, ident.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := auth.NewTokenManager("secret-a", 60)
	verifier := auth.NewTokenManager("secret-b", 60)

	token, _, err := issuer.GenerateToken("user-123", domain.RoleAgent)
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	require.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	secret := "test-secret"
	claims := &auth.Claims{
		Role: domain.RoleAgent,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	tm := auth.NewTokenManager(secret, 60)
	_, err = tm.ParseToken(token)
	require.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", 60)

	_, err := tm.ParseToken("not-a-token")
	require.Error(t, err)
}

func TestParseTokenRejectsUnknownRole(t *testing.T) {
	secret := "test-secret"
	claims := &auth.Claims{
		Role: domain.Role("superuser"),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	tm := auth.NewTokenManager(secret, 60)
	_, err = tm.ParseToken(token)
	require.Error(t, err)
}
