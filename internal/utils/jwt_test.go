package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminToken_RoundTrip(t *testing.T) {
	token, err := GenerateAdminToken("ops-1", "secret", "shuttle", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)

	claims, err := ValidateAdminToken(token.AccessToken, "secret", "shuttle")
	require.NoError(t, err)
	assert.Equal(t, "ops-1", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestAdminToken_Rejections(t *testing.T) {
	token, err := GenerateAdminToken("ops-1", "secret", "shuttle", time.Hour)
	require.NoError(t, err)

	_, err = ValidateAdminToken(token.AccessToken, "other-secret", "shuttle")
	assert.Error(t, err)

	_, err = ValidateAdminToken(token.AccessToken, "secret", "someone-else")
	assert.Error(t, err)

	expired, err := GenerateAdminToken("ops-1", "secret", "shuttle", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateAdminToken(expired.AccessToken, "secret", "shuttle")
	assert.Error(t, err)

	rider := jwt.NewWithClaims(jwt.SigningMethodHS256, &AdminClaims{
		Role:             "rider",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "shuttle", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	signed, err := rider.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ValidateAdminToken(signed, "secret", "shuttle")
	assert.Error(t, err)
}
