// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"encoding/hex"
	"errors"
	"log/slog"

	"codeberg.org/vrmates/accounts/internal/config"
	"github.com/gorilla/securecookie"
)

// ensureSecrets fills empty secrets with random values for local
// development. Links and sessions do not survive a restart then, so this
// is refused for anything but localhost.
func ensureSecrets(cfg *config.Config) error {
	if cfg.Auth.SecretKey != "" && cfg.Session.HashKey != "" {
		return nil
	}
	if !config.IsLocalhost(cfg.Server.Host) {
		return errors.New("--secret-key and --session-hash-key must be set when not running on localhost")
	}

	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = hex.EncodeToString(securecookie.GenerateRandomKey(32))
		slog.Warn("secret_key_generated", "hint", "activation links and access tokens stop working on restart")
	}
	if cfg.Session.HashKey == "" {
		cfg.Session.HashKey = hex.EncodeToString(securecookie.GenerateRandomKey(32))
		slog.Warn("session_hash_key_generated", "hint", "sessions end on restart")
	}
	return nil
}
