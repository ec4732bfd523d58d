package auth

import (
	"context"
	"testing"
	"time"

	"landlords/config"
	"landlords/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access",
		RefreshSecret: "refresh",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "landlords-test",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	tok, err := GenerateAccessToken(cfg, 7, "owner@example.com", domain.RoleOwner)
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, tok)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 7, Email: "owner@example.com", Role: domain.RoleOwner}, claims.Identity())
}

func TestParseAccessTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	cfg := testJWTConfig()
	tok, err := GenerateAccessToken(cfg, 7, "owner@example.com", domain.RoleOwner)
	require.NoError(t, err)

	other := testJWTConfig()
	other.AccessSecret = "different"
	_, err = ParseAccessToken(other, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := testJWTConfig()
	expired.AccessExpiry = -time.Minute
	tok, err = GenerateAccessToken(expired, 7, "owner@example.com", domain.RoleOwner)
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenCarriesUserID(t *testing.T) {
	cfg := testJWTConfig()
	tok, err := GenerateRefreshToken(cfg, 42)
	require.NoError(t, err)

	id, err := ParseRefreshToken(cfg, tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = ParseAccessToken(cfg, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFrom(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{UserID: 3, Role: domain.RoleAdmin})
	id, ok := IdentityFrom(ctx)
	require.True(t, ok)
	assert.True(t, id.IsAdmin())
	assert.False(t, id.IsOwner())
}
