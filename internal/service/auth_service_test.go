package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signetflow/signet-api/internal/models"
	appErrors "github.com/signetflow/signet-api/pkg/errors"
)

func signToken(t *testing.T, secret string, claims *models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc := NewAuthService("test-secret")
	raw := signToken(t, "test-secret", &models.JWTClaims{
		UserID: "signer-1",
		Email:  "signer@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := svc.ValidateToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "signer-1", claims.UserID)
	assert.Equal(t, "signer@example.com", claims.Email)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := NewAuthService("test-secret")
	raw := signToken(t, "other-secret", &models.JWTClaims{UserID: "signer-1"})

	_, err := svc.ValidateToken(raw)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewAuthService("test-secret")
	raw := signToken(t, "test-secret", &models.JWTClaims{
		UserID: "signer-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := svc.ValidateToken(raw)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestValidateTokenRequiresUserID(t *testing.T) {
	svc := NewAuthService("test-secret")
	raw := signToken(t, "test-secret", &models.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := svc.ValidateToken(raw)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewAuthService("test-secret")

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
