// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package tokens issues and checks one-time links for account activation
// and password reset.
//
// Tokens are not stored. A token is a MAC over the account state it was
// issued for plus the issue time, so it stops validating as soon as that
// state changes (activation, password change, login) or its lifetime ends.
package tokens

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"codeberg.org/vrmates/accounts/internal/models"
)

const (
	// PurposeActivation keys tokens sent in activation emails.
	PurposeActivation = "account-activation"
	// PurposePasswordReset keys tokens sent in password reset emails.
	PurposePasswordReset = "password-reset"

	macLen = 32
)

// epoch is the reference point for token timestamps.
var epoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	ErrEmptySecret = errors.New("token secret must not be empty")
	ErrInvalidUID  = errors.New("invalid uid")
)

// Generator issues and validates tokens for one purpose.
type Generator struct {
	key []byte
	ttl time.Duration

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

// NewGenerator creates a Generator. Generators with different purposes
// derive different keys from the same secret.
func NewGenerator(secret []byte, purpose string, ttl time.Duration) (*Generator, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", ttl)
	}

	key := sha256.Sum256(append([]byte(purpose), secret...))

	return &Generator{
		key:     key[:],
		ttl:     ttl,
		NowFunc: time.Now,
	}, nil
}

// TTL returns how long issued tokens stay valid.
func (g *Generator) TTL() time.Duration {
	return g.ttl
}

// Issue returns a token for the user's current state.
func (g *Generator) Issue(u *models.User) string {
	return g.tokenAt(u, g.seconds(g.NowFunc()))
}

// Validate reports whether token was issued by g for u in its current
// state and has not expired.
func (g *Generator) Validate(u *models.User, token string) bool {
	if u == nil || token == "" {
		return false
	}

	tsPart, macPart, ok := strings.Cut(token, "-")
	if !ok || len(macPart) != macLen || tsPart == "" || len(tsPart) > 13 {
		return false
	}

	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil || ts < 0 {
		return false
	}

	expected := g.tokenAt(u, ts)
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return false
	}

	age := g.seconds(g.NowFunc()) - ts
	return age >= 0 && time.Duration(age)*time.Second <= g.ttl
}

func (g *Generator) seconds(t time.Time) int64 {
	return int64(t.Sub(epoch) / time.Second)
}

func (g *Generator) tokenAt(u *models.User, ts int64) string {
	mac := hmac.New(sha256.New, g.key)
	_, _ = mac.Write([]byte(hashValue(u, ts)))
	sum := hex.EncodeToString(mac.Sum(nil))
	return strconv.FormatInt(ts, 36) + "-" + sum[:macLen]
}

// hashValue lists the account state a token is bound to.
func hashValue(u *models.User, ts int64) string {
	var lastLogin int64
	if u.LastLogin != nil {
		lastLogin = u.LastLogin.Unix()
	}
	return fmt.Sprintf("%d|%s|%d|%d|%t|%s", u.ID, u.PasswordHash, lastLogin, ts, u.IsActive, u.Email)
}

// EncodeUID encodes a user ID for use in a URL.
func EncodeUID(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(uid string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(uid, "="))
	if err != nil {
		return 0, ErrInvalidUID
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidUID
	}
	return id, nil
}
