package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const PurposePasswordReset = "password_reset"

var ErrEmptySecret = errors.New("jwt secret is empty")

// ResetClaims — токен, выдаваемый после успешной проверки кода.
// Cfp привязывает токен к конкретному коду: как только код сменится
// или будет погашен, токен перестаёт подходить.
type ResetClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	Cfp     string `json:"cfp"`
	jwt.RegisteredClaims
}

// GenerateResetToken создаёт HS256 JWT для сброса пароля.
func GenerateResetToken(secret string, userID int64, email, code string, now time.Time, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	claims := ResetClaims{
		Email:   email,
		Purpose: PurposePasswordReset,
		Cfp:     CodeFingerprint(code),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseResetToken проверяет подпись, срок (относительно now) и назначение токена.
func ParseResetToken(secret, tokenString string, now time.Time) (*ResetClaims, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	claims := &ResetClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposePasswordReset {
		return nil, fmt.Errorf("unexpected token purpose %q", claims.Purpose)
	}
	return claims, nil
}

func CodeFingerprint(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
