package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iamasit07/arcade/internal/config"
)

// Claims ride in the access token. The live endpoint uses Username as the
// client id and DisplayName in room status messages.
type Claims struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AccountType string `json:"account_type"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a short-lived JWT access token and returns
// when it expires.
func GenerateAccessToken(username, displayName, accountType string) (string, time.Time, error) {
	secret := config.AppConfig.JWTSecret
	now := time.Now()
	expiresAt := now.Add(config.AppConfig.AccessTTL())

	claims := &Claims{
		Username:    username,
		DisplayName: displayName,
		AccountType: accountType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken validates a JWT access token and returns the claims
func ValidateAccessToken(tokenString string) (*Claims, error) {
	secret := config.AppConfig.JWTSecret

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
