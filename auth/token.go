// Package auth covers credentials: JWT session tokens, password hashing
// and the request validation rules around account creation.
package auth

import (
	"fmt"
	"strings"
	"time"

	apperrors "converse/errors"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates session tokens with a single HS256
// secret. The secret comes from configuration, never from source.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Generate creates a signed JWT for a specific user.
func (t *TokenManager) Generate(userID string, roles []string) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "converse",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Validate parses the token and checks its signature and expiration.
func (t *TokenManager) Validate(tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.ErrUnauthenticated
	}
	return claims, nil
}

// Resolve maps a bearer credential to a user identity, implementing the
// identity resolver consumed by the transport layers. It accepts the raw
// token with or without the "Bearer " prefix.
func (t *TokenManager) Resolve(credential string) (string, error) {
	tokenString := strings.TrimPrefix(credential, "Bearer ")
	if tokenString == "" {
		return "", apperrors.ErrUnauthenticated
	}
	claims, err := t.Validate(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
