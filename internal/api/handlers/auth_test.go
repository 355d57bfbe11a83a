package handlers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lyricforge/lyricforge-api/internal/config"
	"github.com/lyricforge/lyricforge-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthHandler() *AuthHandler {
	return &AuthHandler{
		cfg: &config.Config{JWTSecret: "test-secret"},
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	h := testAuthHandler()
	user := &models.User{Email: "singer@example.com"}
	user.ID = 42

	tokenString, err := h.generateAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "singer@example.com", claims.Email)
	assert.Equal(t, tokenIssuer, claims.Issuer)

	ttl := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, ttl, 55*time.Minute)
	assert.LessOrEqual(t, ttl, accessTokenDuration)
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	h := testAuthHandler()
	user := &models.User{Email: "singer@example.com"}
	user.ID = 7

	tokenString, err := h.generateRefreshToken(user)
	require.NoError(t, err)

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)

	ttl := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, ttl, 6*24*time.Hour)
	assert.LessOrEqual(t, ttl, refreshTokenDuration)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	h := testAuthHandler()
	user := &models.User{Email: "singer@example.com"}
	user.ID = 1

	tokenString, err := h.generateAccessToken(user)
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte("a-different-secret"), nil
	})
	assert.Error(t, err)
}

func TestLookupInvitationEmptyCode(t *testing.T) {
	// Registration without a code is open signup: no invitation, no error.
	h := testAuthHandler()
	invitation, err := h.lookupInvitation("")
	require.NoError(t, err)
	assert.Nil(t, invitation)
}
