package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pilot = models.User{UserID: 3, Name: "Asha Rao", LoginID: "asha", Role: models.RoleUser}

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 24*time.Hour)

	token, expiresAt, err := issuer.Issue(pilot)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	subject, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, &models.Subject{UserID: 3, Name: "Asha Rao", LoginID: "asha", Role: models.RoleUser}, subject)
}

func TestVerifyEmpty(t *testing.T) {
	_, err := NewTokenIssuer("test-secret", time.Hour).Verify("")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestVerifyExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := issuer.Issue(pilot)
	require.NoError(t, err)

	_, err = NewTokenIssuer("test-secret", time.Hour).Verify(token)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Equal(t, "Access token has expired.", apperr.PublicMessage(err))
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("secret-a", time.Hour).Issue(pilot)
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b", time.Hour).Verify(token)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestVerifyTampered(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, _, err := issuer.Issue(pilot)
	require.NoError(t, err)

	// Swap in a payload from an admin token signed with another key.
	other, _, err := NewTokenIssuer("other", time.Hour).Issue(models.User{UserID: 3, Role: models.RoleAdmin})
	require.NoError(t, err)
	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	forged := parts[0] + "." + otherParts[1] + "." + parts[2]

	_, err = issuer.Verify(forged)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		UserID: 3,
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenIssuer("test-secret", time.Hour).Verify(token)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestVerifyRequiresExpiry(t *testing.T) {
	claims := Claims{UserID: 3, Role: models.RoleUser}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewTokenIssuer("test-secret", time.Hour).Verify(token)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	token, _, err := NewTokenIssuer("test-secret", time.Hour).Issue(models.User{UserID: 3, Role: "superuser"})
	require.NoError(t, err)

	_, err = NewTokenIssuer("test-secret", time.Hour).Verify(token)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.False(t, CheckPassword("not-a-hash", "correct horse"))
}
