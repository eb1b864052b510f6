// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session handles the browser session cookie and bearer access
// tokens of logged-in users.
package session

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"codeberg.org/vrmates/accounts/internal/config"
	"github.com/gorilla/securecookie"
)

// Data is the content of the session cookie.
type Data struct {
	UserID  int64     `json:"user_id"`
	Email   string    `json:"email"`
	Expires time.Time `json:"expires"`
}

// Manager encodes and decodes session cookies.
type Manager struct {
	codec  *securecookie.SecureCookie
	name   string
	maxAge int
	secure bool

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

// NewManager creates a Manager. An empty hash key is replaced by a random
// one, which invalidates sessions on every restart.
func NewManager(cfg *config.SessionConfig, secure bool) (*Manager, error) {
	hashKey, err := decodeKey(cfg.HashKey)
	if err != nil {
		return nil, fmt.Errorf("invalid session hash key: %w", err)
	}
	if hashKey == nil {
		slog.Warn("session_hash_key_generated", "hint", "set --session-hash-key to keep sessions across restarts")
		hashKey = securecookie.GenerateRandomKey(32)
	}

	blockKey, err := decodeKey(cfg.BlockKey)
	if err != nil {
		return nil, fmt.Errorf("invalid session block key: %w", err)
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(cfg.MaxAge)
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &Manager{
		codec:   codec,
		name:    cfg.CookieName,
		maxAge:  cfg.MaxAge,
		secure:  secure,
		NowFunc: time.Now,
	}, nil
}

// Create returns a cookie that logs the user in.
func (m *Manager) Create(userID int64, email string) (*http.Cookie, error) {
	expires := m.NowFunc().Add(time.Duration(m.maxAge) * time.Second).UTC()
	value, err := m.codec.Encode(m.name, Data{UserID: userID, Email: email, Expires: expires})
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}

	return &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   m.maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Parse returns the session of r, or nil if there is none or it is not
// valid anymore.
func (m *Manager) Parse(r *http.Request) *Data {
	cookie, err := r.Cookie(m.name)
	if err != nil {
		return nil
	}

	var data Data
	if err := m.codec.Decode(m.name, cookie.Value, &data); err != nil {
		return nil
	}
	if data.UserID <= 0 || !m.NowFunc().Before(data.Expires) {
		return nil
	}

	return &data
}

// Clear returns a cookie that removes the session.
func (m *Manager) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func decodeKey(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	switch len(key) {
	case 16, 24, 32, 64:
		return key, nil
	default:
		return nil, errors.New("key must be 16, 24, 32 or 64 bytes")
	}
}
