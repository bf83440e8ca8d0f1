package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetToken_RoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tok, err := GenerateResetToken("s3cret", 42, "user@example.com", "123456", now, 10*time.Minute)
	require.NoError(t, err)

	claims, err := ParseResetToken("s3cret", tok, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, CodeFingerprint("123456"), claims.Cfp)
}

func TestResetToken_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tok, err := GenerateResetToken("s3cret", 42, "user@example.com", "123456", now, 10*time.Minute)
	require.NoError(t, err)

	_, err = ParseResetToken("s3cret", tok, now.Add(11*time.Minute))
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestResetToken_WrongSecret(t *testing.T) {
	now := time.Now()
	tok, err := GenerateResetToken("s3cret", 42, "user@example.com", "123456", now, time.Minute)
	require.NoError(t, err)

	_, err = ParseResetToken("other", tok, now)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestResetToken_WrongPurpose(t *testing.T) {
	now := time.Now()
	claims := ResetClaims{
		Purpose: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = ParseResetToken("s3cret", tok, now)
	assert.ErrorContains(t, err, "purpose")
}

func TestResetToken_EmptySecret(t *testing.T) {
	_, err := GenerateResetToken("", 1, "a@b.c", "1", time.Now(), time.Minute)
	assert.ErrorIs(t, err, ErrEmptySecret)
	_, err = ParseResetToken("", "x.y.z", time.Now())
	assert.ErrorIs(t, err, ErrEmptySecret)
}
