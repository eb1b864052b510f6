// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"codeberg.org/vrmates/accounts/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidAccessToken = errors.New("invalid access token")

// Claims are the claims of an access token.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// AccessTokens issues and parses HS256 bearer tokens.
type AccessTokens struct {
	secret []byte
	ttl    time.Duration

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

// NewAccessTokens creates an AccessTokens.
func NewAccessTokens(secret []byte, ttl time.Duration) (*AccessTokens, error) {
	if len(secret) == 0 {
		return nil, errors.New("access token secret must not be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("access token lifetime must be positive, got %s", ttl)
	}
	return &AccessTokens{secret: secret, ttl: ttl, NowFunc: time.Now}, nil
}

// Issue returns a signed token for user and its expiry.
func (a *AccessTokens) Issue(user *models.User) (string, time.Time, error) {
	now := a.NowFunc()
	expires := now.Add(a.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
		Email: user.Email,
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies tokenString and returns the user ID it was issued for.
func (a *AccessTokens) Parse(tokenString string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.NowFunc),
	)
	if err != nil || !token.Valid {
		return 0, ErrInvalidAccessToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidAccessToken
	}
	return id, nil
}
