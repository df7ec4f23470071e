package auth_test

import (
	"testing"
	"time"

	"github.com/concesionario/backoffice-api/internal/auth"
	"github.com/concesionario/backoffice-api/internal/config"
	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newIssuer(ttlMinutes int) *auth.TokenIssuer {
	return auth.NewTokenIssuer(&config.AuthConfig{
		JWTSecret: testSecret,
		Issuer:    "test-issuer",
		TokenTTL:  ttlMinutes,
	})
}

func testUser() *domain.User {
	u := &domain.User{Username: "gestor1", Role: domain.RoleManager, IsActive: true}
	u.ID = uuid.New()
	return u
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := newIssuer(60)
	user := testUser()

	token, expiresAt, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	id, claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Equal(t, "gestor1", claims.Username)
	assert.Equal(t, domain.RoleManager, claims.Role)
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	token, _, err := newIssuer(-1).Issue(testUser())
	require.NoError(t, err)

	_, _, err = newIssuer(60).Parse(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	other := auth.NewTokenIssuer(&config.AuthConfig{
		JWTSecret: "another-secret-another-secret-xx",
		Issuer:    "test-issuer",
		TokenTTL:  60,
	})
	token, _, err := other.Issue(testUser())
	require.NoError(t, err)

	_, _, err = newIssuer(60).Parse(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenIssuer_RejectsWrongIssuer(t *testing.T) {
	other := auth.NewTokenIssuer(&config.AuthConfig{JWTSecret: testSecret, Issuer: "someone-else", TokenTTL: 60})
	token, _, err := other.Issue(testUser())
	require.NoError(t, err)

	_, _, err = newIssuer(60).Parse(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		Issuer:    "test-issuer",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, _, err = newIssuer(60).Parse(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, _, err = newIssuer(60).Parse("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct horse", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, auth.CheckPassword(hash, "correct horse"))
	assert.False(t, auth.CheckPassword(hash, "wrong horse"))
	assert.False(t, auth.CheckPassword("not-a-hash", "correct horse"))
}
